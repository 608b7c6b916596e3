package servicenow

import (
	"context"
	"fmt"
)

// UpdateSetClone summarizes a completed clone.
type UpdateSetClone struct {
	SourceID    string `json:"source_id"`
	CloneID     string `json:"clone_id"`
	MemberCount int    `json:"member_count"`
}

// updateSetPageSize bounds each sys_update_xml listing page during a clone.
const updateSetPageSize = 100

// CloneUpdateSet copies an update set and every sys_update_xml member into a
// fresh in-progress set. The clone gets newName, or "<source> (copy)" when
// newName is empty.
func (c *Client) CloneUpdateSet(ctx context.Context, sysID, newName string) (*UpdateSetClone, error) {
	source, err := c.GetRecord(ctx, "sys_update_set", sysID)
	if err != nil {
		return nil, fmt.Errorf("fetching source update set: %w", err)
	}

	if newName == "" {
		newName = source.Field("name") + " (copy)"
	}

	clone, err := c.CreateRecord(ctx, "sys_update_set", map[string]any{
		"name":        newName,
		"description": source.Field("description"),
		"application": source.Field("application"),
		"state":       "in progress",
	})
	if err != nil {
		return nil, fmt.Errorf("creating clone: %w", err)
	}

	members, err := c.ListAllRecords(ctx, "sys_update_xml", "update_set="+sysID, updateSetPageSize)
	if err != nil {
		return nil, fmt.Errorf("listing update set members: %w", err)
	}

	for _, member := range members {
		_, err := c.CreateRecord(ctx, "sys_update_xml", map[string]any{
			"update_set":  clone.SysID(),
			"name":        member.Field("name"),
			"type":        member.Field("type"),
			"target_name": member.Field("target_name"),
			"category":    member.Field("category"),
			"payload":     member.Field("payload"),
		})
		if err != nil {
			return nil, fmt.Errorf("copying member %q: %w", member.Field("name"), err)
		}
	}

	return &UpdateSetClone{
		SourceID:    sysID,
		CloneID:     clone.SysID(),
		MemberCount: len(members),
	}, nil
}
