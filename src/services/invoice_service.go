package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/model"
)

const invoiceSummariesCacheKeyFormat = "invoice_summaries_user_%d"

type invoiceServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
}

func NewInvoiceService(db *sql.DB, reportCache *cache.Cache) InvoiceService {
	return &invoiceServiceImpl{db: db, reportCache: reportCache}
}

func (s *invoiceServiceImpl) ListInvoices(userID int64) ([]model.InvoiceSummary, error) {
	cacheKey := fmt.Sprintf(invoiceSummariesCacheKeyFormat, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		if summaries, ok := cached.([]model.InvoiceSummary); ok {
			logger.L.Debug("Invoice summaries cache hit", "userID", userID)
			return summaries, nil
		}
		logger.L.Warn("Invoice summaries cache type assertion failed", "userID", userID)
	}

	summaries, err := model.ListInvoiceSummaries(s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching invoice summaries for user %d: %w", userID, err)
	}
	s.reportCache.Set(cacheKey, summaries, 15*time.Minute)
	return summaries, nil
}

func (s *invoiceServiceImpl) InvalidateUserCache(userID int64) {
	cacheKey := fmt.Sprintf(invoiceSummariesCacheKeyFormat, userID)
	s.reportCache.Delete(cacheKey)
	logger.L.Debug("Invoice summaries cache invalidated", "userID", userID)
}
