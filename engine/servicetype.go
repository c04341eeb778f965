package engine

import "github.com/svcinit/systemctl/descriptor"

// serviceType implements the per-variant start/stop/reload/restart
// behavior of spec.md §4.5's dispatch table. Engine.dispatch calls
// resolveType for each verb call right after loading the unit, so an
// unknown Service.Type fails that verb before any of its commands run.
type serviceType interface {
	Start(ctx *unitContext) error
	Stop(ctx *unitContext) error
	Reload(ctx *unitContext) error
	Restart(ctx *unitContext) error
}

// resolveType maps a descriptor's Service.Type (defaulting to "simple") to
// its serviceType implementation.
func resolveType(desc *descriptor.Descriptor) (serviceType, error) {
	switch desc.GetDefault("Service", "Type", "simple") {
	case "simple", "notify":
		return simpleType{}, nil
	case "oneshot":
		return oneshotType{}, nil
	case "forking":
		return forkingType{}, nil
	case "sysv":
		return sysvType{}, nil
	default:
		return nil, ErrUnknownServiceType
	}
}
