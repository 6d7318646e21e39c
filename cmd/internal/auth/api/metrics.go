package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userauth_registrations_total",
		Help: "User registration attempts by result.",
	}, []string{"result"})

	metricLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userauth_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	metricValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userauth_token_validations_total",
		Help: "Session token validations by result.",
	}, []string{"result"})

	metricLogouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userauth_logouts_total",
		Help: "Logout requests by result.",
	}, []string{"result"})
)
