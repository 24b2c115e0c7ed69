package handler

import (
	"errors"
	"net/http"
	"strconv"

	"crowdvest/internal/middleware"
	"crowdvest/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PortfolioHandler serves read-only views over vehicles, investments,
// transactions and marketplace listings.
type PortfolioHandler struct {
	vehicleRepo *repository.VehicleRepository
	investRepo  *repository.InvestmentRepository
	txRepo      *repository.TransactionRepository
	listingRepo *repository.ListingRepository
}

func NewPortfolioHandler(vehicleRepo *repository.VehicleRepository, investRepo *repository.InvestmentRepository, txRepo *repository.TransactionRepository, listingRepo *repository.ListingRepository) *PortfolioHandler {
	return &PortfolioHandler{vehicleRepo: vehicleRepo, investRepo: investRepo, txRepo: txRepo, listingRepo: listingRepo}
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

func (h *PortfolioHandler) ListVehicles(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.vehicleRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": list})
}

func (h *PortfolioHandler) GetVehicle(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	v, err := h.vehicleRepo.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": v})
}

func (h *PortfolioHandler) ListMarketplace(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.listingRepo.ListActive(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": list})
}

func (h *PortfolioHandler) ListMyInvestments(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.investRepo.ListByUserID(middleware.GetUserID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"investments": list})
}

func (h *PortfolioHandler) ListMyTransactions(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.txRepo.ListByUserID(middleware.GetUserID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
