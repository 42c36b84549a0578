package utils

import (
	"fmt"

	"github.com/connexx-dev/connexx/internal/middleware"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"github.com/gin-gonic/gin"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

func GetCurrentTenant(ctx *gin.Context) (models.Tenant, error) {
	tenant, exists := ctx.Get(types.ContextTenantKey)

	if !exists {
		return models.Tenant{}, fmt.Errorf("Tenant not authenticated")
	}

	authenticatedTenant, ok := tenant.(models.Tenant)

	if !ok {
		return models.Tenant{}, fmt.Errorf("Invalid tenant type in context")
	}

	return authenticatedTenant, nil
}
