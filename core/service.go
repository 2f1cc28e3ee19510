package core

import (
	"sync"

	"go.lumeweb.com/passreset/core/internal"
)

type ServiceFactory func() (Service, []ContextBuilderOption, error)

type Service interface {
	ID() string
}

var (
	services          = make(map[string]ServiceInfo)
	servicesOrdered   []ServiceInfo
	servicesMu        sync.RWMutex
	servicesOrderedMu sync.RWMutex
)

type ServiceInfo struct {
	ID      string
	Factory ServiceFactory
	Depends []string
}

func RegisterService(service ServiceInfo) {
	if service.ID == "" {
		panic("service ID must not be empty")
	}

	if service.Factory == nil {
		panic("service factory must not be nil")
	}

	servicesMu.Lock()
	defer servicesMu.Unlock()

	servicesOrderedMu.Lock()
	defer servicesOrderedMu.Unlock()

	if _, ok := services[service.ID]; ok {
		panic("service already registered: " + service.ID)
	}

	// A new registration invalidates the cached start order.
	servicesOrdered = nil

	services[service.ID] = service
}

func GetServiceInfo(id string) *ServiceInfo {
	servicesMu.RLock()
	defer servicesMu.RUnlock()

	svc, ok := services[id]

	if !ok {
		return nil
	}

	return &svc
}

// GetServices returns the registered services ordered so that every service comes after its dependencies.
func GetServices() ([]ServiceInfo, error) {
	servicesMu.RLock()
	defer servicesMu.RUnlock()

	servicesOrderedMu.Lock()
	defer servicesOrderedMu.Unlock()

	if len(servicesOrdered) > 0 {
		return servicesOrdered, nil
	}

	graph := internal.NewDependsGraph()

	for _, k := range services {
		graph.AddNode(k.ID, k.Depends...)
	}

	list, err := graph.Build()
	if err != nil {
		return nil, err
	}

	svcList := make([]ServiceInfo, 0, len(list))

	for _, k := range list {
		svcList = append(svcList, services[k])
	}

	servicesOrdered = svcList

	return svcList, nil
}
