package tools

import (
	"fmt"
	"sort"
	"strings"
)

// InstanceClients resolves instance names to clients. An empty name picks the
// default instance.
type InstanceClients struct {
	defaultName string
	clients     map[string]RecordAPI
}

func NewInstanceClients(clients map[string]RecordAPI, defaultName string) (*InstanceClients, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("no instances configured")
	}
	if _, ok := clients[defaultName]; !ok {
		return nil, fmt.Errorf("default instance %q is not configured", defaultName)
	}
	return &InstanceClients{defaultName: defaultName, clients: clients}, nil
}

func (ic *InstanceClients) Instance(name string) (RecordAPI, error) {
	if name == "" {
		name = ic.defaultName
	}
	client, ok := ic.clients[name]
	if !ok {
		return nil, fmt.Errorf("unknown instance %q (configured: %s)", name, strings.Join(ic.names(), ", "))
	}
	return client, nil
}

func (ic *InstanceClients) names() []string {
	names := make([]string, 0, len(ic.clients))
	for name := range ic.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
