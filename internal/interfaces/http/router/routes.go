// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"ideaplan-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	planHandler *handler.PlanHandler,
	optionalAuth, requiredAuth, generateLimit gin.HandlerFunc,
) {
	v1.POST("/plans/generate", optionalAuth, generateLimit, planHandler.GeneratePlan)

	plans := v1.Group("/plans", requiredAuth)
	{
		plans.GET("", planHandler.ListPlans)
		plans.POST("", planHandler.SavePlan)
		plans.GET("/:pid", planHandler.GetPlan)
		plans.DELETE("/:pid", planHandler.DeletePlan)
		plans.GET("/:pid/sections", planHandler.GetPlanSections)
	}
}

// RegisterCompatRoutes 注册与早期前端约定一致的路径
func RegisterCompatRoutes(
	api *gin.RouterGroup,
	planHandler *handler.PlanHandler,
	optionalAuth, requiredAuth, generateLimit gin.HandlerFunc,
) {
	api.POST("/generate-plan", optionalAuth, generateLimit, planHandler.GeneratePlan)
	api.POST("/save-plan", requiredAuth, planHandler.SavePlan)
}
