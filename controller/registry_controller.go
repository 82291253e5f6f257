package controller

import (
	"net/http"

	service "github.com/Itish41/complytrack/service"

	"github.com/gin-gonic/gin"
)

// RegistryController serves companies, users, AI systems and members.
type RegistryController struct {
	service *service.RegistryService
}

func NewRegistryController(s *service.RegistryService) *RegistryController {
	return &RegistryController{service: s}
}

func (c *RegistryController) CreateCompany(ctx *gin.Context) {
	var in service.CompanyInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "Invalid company payload", err)
		return
	}
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	company, err := c.service.CreateCompany(ctx.Request.Context(), in, actor)
	if err != nil {
		respondError(ctx, "CreateCompany", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Company created successfully",
		"company": company,
	})
}

func (c *RegistryController) ListCompanies(ctx *gin.Context) {
	companies, err := c.service.ListCompanies(ctx.Request.Context())
	if err != nil {
		respondError(ctx, "ListCompanies", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"companies": companies, "total": len(companies)})
}

func (c *RegistryController) GetCompany(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	company, err := c.service.GetCompany(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "GetCompany", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"company": company})
}

// DeleteCompany removes a company and, through the schema, everything it owns.
func (c *RegistryController) DeleteCompany(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.service.DeleteCompany(ctx.Request.Context(), id); err != nil {
		respondError(ctx, "DeleteCompany", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Company deleted"})
}

func (c *RegistryController) CreateUser(ctx *gin.Context) {
	var in service.UserInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "Invalid user payload", err)
		return
	}
	user, err := c.service.CreateUser(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, "CreateUser", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

func (c *RegistryController) GetUser(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	user, err := c.service.GetUser(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "GetUser", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (c *RegistryController) ListUsers(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	users, err := c.service.ListUsers(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "ListUsers", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

func (c *RegistryController) CreateSystem(ctx *gin.Context) {
	var in service.SystemInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "Invalid AI system payload", err)
		return
	}
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	system, err := c.service.CreateSystem(ctx.Request.Context(), in, actor)
	if err != nil {
		respondError(ctx, "CreateSystem", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":   "AI system created successfully",
		"ai_system": system,
	})
}

func (c *RegistryController) GetSystem(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	system, err := c.service.GetSystem(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "GetSystem", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ai_system": system})
}

func (c *RegistryController) ListSystems(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	systems, err := c.service.ListSystems(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "ListSystems", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ai_systems": systems, "total": len(systems)})
}

func (c *RegistryController) DeleteSystem(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	if err := c.service.DeleteSystem(ctx.Request.Context(), id, actor); err != nil {
		respondError(ctx, "DeleteSystem", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "AI system deleted"})
}

func (c *RegistryController) AddMember(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in service.MemberInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "Invalid member payload", err)
		return
	}
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	member, err := c.service.AddMember(ctx.Request.Context(), id, in, actor)
	if err != nil {
		respondError(ctx, "AddMember", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Member added",
		"member":  member,
	})
}

func (c *RegistryController) ListMembers(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	members, err := c.service.ListMembers(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "ListMembers", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}
