// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ideaplan-api/internal/application/planning"
	"ideaplan-api/internal/config"
	"ideaplan-api/internal/domain/entity"
	"ideaplan-api/internal/domain/repository"
	"ideaplan-api/internal/interfaces/http/dto"
	"ideaplan-api/internal/interfaces/http/middleware"
	apperrors "ideaplan-api/pkg/errors"
	"ideaplan-api/pkg/logger"
)

// PlanHandler 计划处理器
type PlanHandler struct {
	generator       *planning.Generator
	planRepo        repository.PlanRepository
	generateTimeout time.Duration
}

// NewPlanHandler 创建计划处理器
func NewPlanHandler(generator *planning.Generator, planRepo repository.PlanRepository, cfg *config.Config) *PlanHandler {
	h := &PlanHandler{
		generator: generator,
		planRepo:  planRepo,
	}
	if cfg != nil {
		h.generateTimeout = cfg.Server.HTTP.GenerateTimeout
	}
	return h
}

// GeneratePlan 生成商业计划
// @Summary 生成商业计划
// @Description 根据创业想法生成结构化商业计划，认证可选
// @Tags Plans
// @Accept json
// @Produce json
// @Param body body dto.GeneratePlanRequest true "创业想法"
// @Success 200 {object} dto.GeneratePlanResponse
// @Failure 400 {object} dto.GeneratePlanResponse
// @Failure 500 {object} dto.GeneratePlanResponse
// @Router /v1/plans/generate [post]
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.GeneratePlanResponse{Error: "Invalid request body"})
		return
	}

	if h.generateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.generateTimeout)
		defer cancel()
	}

	logger.Info(ctx, "generating plan", "idea_preview", preview(req.IdeaDescription, 50))

	res := h.generator.Generate(ctx, planning.PlanRequest{
		IdeaDescription: req.IdeaDescription,
		TargetMarket:    req.TargetMarket,
		Country:         req.Country,
		BusinessType:    req.BusinessType,
	})
	if !res.OK() {
		f := res.Failure()
		if f.Kind == planning.KindInvalidInput {
			c.JSON(http.StatusBadRequest, dto.GeneratePlanResponse{Error: f.Message})
			return
		}
		logger.Error(ctx, "plan generation failed", f,
			"kind", string(f.Kind),
			"cause", string(f.Cause),
		)
		c.JSON(http.StatusInternalServerError, dto.GeneratePlanResponse{Error: f.Message})
		return
	}

	data := res.Data()
	c.JSON(http.StatusOK, dto.GeneratePlanResponse{Success: true, Data: &data})
}

// SavePlan 保存计划
// @Summary 保存计划
// @Description 保存生成的计划到当前用户名下，保存前重新校验计划结构
// @Tags Plans
// @Accept json
// @Produce json
// @Param body body dto.SavePlanRequest true "计划"
// @Success 200 {object} dto.SavePlanResponse
// @Failure 400 {object} dto.SavePlanResponse
// @Failure 401 {object} dto.SavePlanResponse
// @Failure 500 {object} dto.SavePlanResponse
// @Router /v1/plans [post]
func (h *PlanHandler) SavePlan(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(middleware.ContextKeyUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, dto.SavePlanResponse{Error: "Unauthorized"})
		return
	}

	var req dto.SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.SavePlanResponse{Error: "Missing required fields"})
		return
	}
	raw := strings.TrimSpace(string(req.GeneratedData))
	if strings.TrimSpace(req.IdeaDescription) == "" || raw == "" || raw == "null" {
		c.JSON(http.StatusBadRequest, dto.SavePlanResponse{Error: "Missing required fields"})
		return
	}

	var candidate any
	if err := json.Unmarshal(req.GeneratedData, &candidate); err != nil {
		c.JSON(http.StatusBadRequest, dto.SavePlanResponse{Error: "Invalid plan data"})
		return
	}
	plan, verr := planning.Validate(candidate)
	if verr != nil {
		c.JSON(http.StatusBadRequest, dto.SavePlanResponse{
			Error: "Invalid plan data: " + strings.Join(verr.Paths(), ", "),
		})
		return
	}

	saved, err := h.planRepo.Save(ctx, userID, req.IdeaDescription, plan)
	if err != nil {
		logger.Error(ctx, "failed to save plan", err)
		c.JSON(http.StatusInternalServerError, dto.SavePlanResponse{Error: "Failed to save plan"})
		return
	}

	ctx = logger.WithContext(ctx, logger.PlanIDKey, saved.ID)
	logger.Info(ctx, "plan saved")
	c.JSON(http.StatusOK, dto.SavePlanResponse{Success: true, PlanID: saved.ID})
}

// ListPlans 列出当前用户的计划
// @Summary 计划列表
// @Tags Plans
// @Produce json
// @Success 200 {object} dto.Response[[]dto.PlanSummaryResponse]
// @Router /v1/plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(middleware.ContextKeyUserID)

	plans, err := h.planRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to list plans", err)
		dto.InternalError(c, "failed to list plans")
		return
	}
	dto.Success(c, dto.ToPlanSummaryResponses(plans))
}

// GetPlan 获取计划详情
// @Summary 计划详情
// @Tags Plans
// @Produce json
// @Param pid path string true "计划 ID"
// @Success 200 {object} dto.Response[dto.PlanResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/plans/{pid} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, ok := h.loadPlan(c)
	if !ok {
		return
	}
	dto.Success(c, dto.ToPlanResponse(plan))
}

// GetPlanSections 获取计划展示区块
// @Summary 计划展示区块
// @Tags Plans
// @Produce json
// @Param pid path string true "计划 ID"
// @Success 200 {object} dto.Response[dto.PlanSectionsResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/plans/{pid}/sections [get]
func (h *PlanHandler) GetPlanSections(c *gin.Context) {
	plan, ok := h.loadPlan(c)
	if !ok {
		return
	}
	dto.Success(c, dto.ToPlanSectionsResponse(plan))
}

// DeletePlan 删除计划
// @Summary 删除计划
// @Tags Plans
// @Param pid path string true "计划 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/plans/{pid} [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	ctx, planID, ok := planScope(c)
	if !ok {
		return
	}
	userID := c.GetString(middleware.ContextKeyUserID)

	if err := h.planRepo.Delete(ctx, planID, userID); err != nil {
		h.renderRepoError(c, err, "failed to delete plan")
		return
	}

	logger.Info(ctx, "plan deleted")
	dto.NoContent(c)
}

func (h *PlanHandler) loadPlan(c *gin.Context) (*entity.StoredPlan, bool) {
	ctx, planID, ok := planScope(c)
	if !ok {
		return nil, false
	}
	userID := c.GetString(middleware.ContextKeyUserID)

	plan, err := h.planRepo.GetByID(ctx, planID, userID)
	if err != nil {
		h.renderRepoError(c, err, "failed to get plan")
		return nil, false
	}
	if !plan.IsOwnedBy(userID) {
		logger.Warn(ctx, "plan store returned a plan owned by another user")
		dto.AppError(c, apperrors.ErrPlanNotFound)
		return nil, false
	}
	return plan, true
}

// planScope 取出 :pid 写入日志上下文；非 UUID 的 ID 直接按不存在返回 404
func planScope(c *gin.Context) (context.Context, string, bool) {
	planID := c.Param("pid")
	ctx := logger.WithContext(c.Request.Context(), logger.PlanIDKey, planID)
	c.Request = c.Request.WithContext(ctx)

	if !entity.IsPlanID(planID) {
		dto.AppError(c, apperrors.ErrPlanNotFound.WithDetail("plan id must be a UUID"))
		return ctx, planID, false
	}
	return ctx, planID, true
}

func (h *PlanHandler) renderRepoError(c *gin.Context, err error, msg string) {
	if errors.Is(err, apperrors.ErrPlanNotFound) {
		dto.AppError(c, apperrors.ErrPlanNotFound)
		return
	}
	logger.Error(c.Request.Context(), msg, err)
	dto.InternalError(c, msg)
}

func preview(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
