package handlers

import (
	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/domain/user"
	"github.com/geocoder89/adminhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func currentUser(ctx *gin.Context) (user.User, bool) {
	return middlewares.CurrentUser(ctx)
}

// actorFrom builds the audit attribution for the authenticated caller.
func actorFrom(u user.User) audit.Actor {
	id := u.ID
	return audit.Actor{UserID: &id, Email: u.Email}
}

func originFrom(ctx *gin.Context) audit.Origin {
	return audit.Origin{
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.GetHeader("User-Agent"),
	}
}
