package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "campusmatch/middleware/security"
	sec "campusmatch/tools/security"
)

type RouteOpt struct {
	IsAuth bool
}

var authOpts sec.Options

// Configure sets the verification options the auth middleware uses.
func Configure(opts sec.Options) { authOpts = opts }

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(authOpts), handler)
	} else {
		r.POST(path, handler)
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(authOpts), handler)
	} else {
		r.GET(path, handler)
	}
}
