package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authorizationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slovar_authorization_decisions_total",
		Help: "Authorization decisions by outcome.",
	}, []string{"outcome"})

	permissionCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slovar_permission_cache_lookups_total",
		Help: "Permission cache lookups by result.",
	}, []string{"result"})
)

const (
	outcomeGranted         = "granted"
	outcomeDenied          = "denied"
	outcomeUnauthenticated = "unauthenticated"
	outcomeError           = "error"
)
