package ratelimit

import (
	"net/http"
	"time"

	httprate "github.com/go-chi/httprate"
)

func Login() func(http.Handler) http.Handler {
	return limitByIP(10, 5*time.Minute)
}

func Signup() func(http.Handler) http.Handler {
	return limitByIP(5, time.Hour)
}

// Recovery covers find-email, forgot-password and reset-password.
func Recovery() func(http.Handler) http.Handler {
	return limitByIP(5, 15*time.Minute)
}

func Applications() func(http.Handler) http.Handler {
	return limitByIP(10, time.Hour)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.LimitByIP(limit, window)
}
