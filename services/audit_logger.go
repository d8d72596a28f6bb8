package services

import (
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/sirupsen/logrus"
)

// IPOAuditLogger writes one structured entry per IPO write
type IPOAuditLogger struct {
	serviceName string
	now         func() time.Time
}

func NewIPOAuditLogger(serviceName string) *IPOAuditLogger {
	return &IPOAuditLogger{
		serviceName: serviceName,
		now:         time.Now,
	}
}

// AuditEntry represents a single audit log entry
type AuditEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	ServiceName string                 `json:"service_name"`
	Operation   string                 `json:"operation"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
	Success     bool                   `json:"success"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// LogIPOCreation records a newly created IPO
func (a *IPOAuditLogger) LogIPOCreation(ipo *models.IPO, symbol string) AuditEntry {
	entry := AuditEntry{
		Timestamp:   a.now(),
		ServiceName: a.serviceName,
		Operation:   "CREATE",
		EntityType:  "IPO",
		EntityID:    ipo.ID.String(),
		Success:     true,
		Metadata: map[string]interface{}{
			"symbol":     symbol,
			"status":     ipo.Status,
			"open_date":  ipo.OpenDate.Format(models.DateLayout),
			"price_band": ipo.PriceRangeDisplay(),
		},
	}

	a.logAuditEntry(entry)
	return entry
}

// LogIPOUpdate records an update with the fields that changed. before may be
// nil when the previous state was not loaded.
func (a *IPOAuditLogger) LogIPOUpdate(before, after *models.IPO, symbol string) AuditEntry {
	changes := a.calculateIPOChanges(before, after)

	entry := AuditEntry{
		Timestamp:   a.now(),
		ServiceName: a.serviceName,
		Operation:   "UPDATE",
		EntityType:  "IPO",
		EntityID:    after.ID.String(),
		Changes:     changes,
		Success:     true,
		Metadata: map[string]interface{}{
			"symbol":        symbol,
			"status":        after.Status,
			"changes_count": len(changes),
		},
	}

	a.logAuditEntry(entry)
	return entry
}

// LogBatchOperation logs the outcome of a whole sync batch
func (a *IPOAuditLogger) LogBatchOperation(operation string, stats models.SyncStats, sampleErrors []error) AuditEntry {
	succeeded := stats.Created + stats.Updated
	entry := AuditEntry{
		Timestamp:   a.now(),
		ServiceName: a.serviceName,
		Operation:   "BATCH_" + operation,
		EntityType:  "IPO",
		EntityID:    "BATCH",
		Success:     stats.Errors == 0,
		Metadata: map[string]interface{}{
			"fetched":   stats.Fetched,
			"processed": stats.Processed,
			"created":   stats.Created,
			"updated":   stats.Updated,
			"errors":    stats.Errors,
		},
	}

	if stats.Errors > 0 {
		entry.ErrorMsg = fmt.Sprintf("batch had %d failures out of %d records", stats.Errors, succeeded+stats.Errors)
		if len(sampleErrors) > 0 {
			entry.Metadata["sample_error"] = sampleErrors[0].Error()
		}
	}

	a.logAuditEntry(entry)
	return entry
}

func (a *IPOAuditLogger) calculateIPOChanges(before, after *models.IPO) map[string]interface{} {
	changes := make(map[string]interface{})
	if before == nil || after == nil {
		return changes
	}

	if before.Status != after.Status {
		changes["status"] = map[string]interface{}{"before": before.Status, "after": after.Status}
	}
	if before.PriceBandMin != after.PriceBandMin {
		changes["price_band_min"] = map[string]interface{}{"before": before.PriceBandMin, "after": after.PriceBandMin}
	}
	if before.PriceBandMax != after.PriceBandMax {
		changes["price_band_max"] = map[string]interface{}{"before": before.PriceBandMax, "after": after.PriceBandMax}
	}

	return changes
}

func (a *IPOAuditLogger) logAuditEntry(entry AuditEntry) {
	logFields := logrus.Fields{
		"component":       "audit",
		"audit_timestamp": entry.Timestamp,
		"service_name":    entry.ServiceName,
		"operation":       entry.Operation,
		"entity_type":     entry.EntityType,
		"entity_id":       entry.EntityID,
		"success":         entry.Success,
	}

	if entry.ErrorMsg != "" {
		logFields["error_msg"] = entry.ErrorMsg
	}
	if len(entry.Changes) > 0 {
		logFields["changes"] = entry.Changes
	}
	for key, value := range entry.Metadata {
		logFields["meta_"+key] = value
	}

	if entry.Success {
		logrus.WithFields(logFields).Info("Audit log entry")
	} else {
		logrus.WithFields(logFields).Warn("Audit log entry - operation failed")
	}
}
