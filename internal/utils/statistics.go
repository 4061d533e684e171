package utils

import (
	"time"

	"gorm.io/gorm"
)

type StatisticsService struct {
	db *gorm.DB
}

// NewStatisticsService creates a new instance of StatisticsService
func NewStatisticsService(db *gorm.DB) *StatisticsService {
	return &StatisticsService{
		db: db,
	}
}

type ResourceUsageStats struct {
	Resource     string  `json:"resource"`
	TotalGranted int     `json:"total_granted"`
	TotalDenied  int     `json:"total_denied"`
	GrantRate    float64 `json:"grant_rate"` // Percentage of granted decisions
}

type SubjectUsageStats struct {
	SubjectRef      string     `json:"subject_ref"`
	TotalDecisions  int        `json:"total_decisions"`
	UniqueResources int        `json:"unique_resources"`
	LastDecisionAt  *time.Time `json:"last_decision_at"`
}

type TimeSeriesData struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// GetResourceUsageStats gets decision statistics for all resources or one resource
func (ss *StatisticsService) GetResourceUsageStats(resource string, start, end time.Time) ([]ResourceUsageStats, error) {
	var stats []ResourceUsageStats

	query := ss.db.Table("access_events").
		Select("access_events.resource, " +
			"COUNT(CASE WHEN access_events.decision = 'granted' THEN 1 END) as total_granted, " +
			"COUNT(CASE WHEN access_events.decision = 'denied' THEN 1 END) as total_denied, " +
			"CAST(COUNT(CASE WHEN access_events.decision = 'granted' THEN 1 END) AS FLOAT) / COUNT(*) * 100 as grant_rate").
		Where("access_events.timestamp BETWEEN ? AND ?", start, end).
		Group("access_events.resource")

	if resource != "" {
		query = query.Where("access_events.resource = ?", resource)
	}

	if err := query.Scan(&stats).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// GetSubjectUsageStats gets decision statistics per subject
func (ss *StatisticsService) GetSubjectUsageStats(subjectRef string, start, end time.Time) ([]SubjectUsageStats, error) {
	var stats []SubjectUsageStats

	query := ss.db.Table("access_events").
		Select("access_events.subject_ref, " +
			"COUNT(*) as total_decisions, " +
			"COUNT(DISTINCT access_events.resource) as unique_resources, " +
			"MAX(access_events.timestamp) as last_decision_at").
		Where("access_events.timestamp BETWEEN ? AND ?", start, end).
		Group("access_events.subject_ref")

	if subjectRef != "" {
		query = query.Where("access_events.subject_ref = ?", subjectRef)
	}

	if err := query.Scan(&stats).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// GetDecisionTimeSeriesData gets time series data for access decisions
func (ss *StatisticsService) GetDecisionTimeSeriesData(resource string, interval string, start, end time.Time) ([]TimeSeriesData, error) {
	var data []TimeSeriesData

	var timeFormat string
	switch interval {
	case "hour":
		timeFormat = "2006-01-02 15:00:00"
	case "day":
		timeFormat = "2006-01-02 00:00:00"
	case "month":
		timeFormat = "2006-01-01 00:00:00"
	default:
		timeFormat = "2006-01-02 15:00:00"
	}

	query := ss.db.Table("access_events").
		Select("strftime(?, access_events.timestamp) as timestamp_str, COUNT(*) as count", timeFormat).
		Where("access_events.timestamp BETWEEN ? AND ?", start, end).
		Group("timestamp_str").
		Order("timestamp_str")

	if resource != "" {
		query = query.Where("access_events.resource = ?", resource)
	}

	type rawData struct {
		TimestampStr string `gorm:"column:timestamp_str"`
		Count        int    `gorm:"column:count"`
	}

	var rawResults []rawData
	if err := query.Scan(&rawResults).Error; err != nil {
		return nil, err
	}

	for _, r := range rawResults {
		t, err := time.Parse(timeFormat, r.TimestampStr)
		if err != nil {
			continue
		}

		data = append(data, TimeSeriesData{
			Timestamp: t,
			Count:     r.Count,
		})
	}

	return data, nil
}

// GetMostDeniedResources gets the resources with the most denied decisions
func (ss *StatisticsService) GetMostDeniedResources(limit int, start, end time.Time) ([]ResourceUsageStats, error) {
	var stats []ResourceUsageStats

	if err := ss.db.Table("access_events").
		Select("access_events.resource, "+
			"0 as total_granted, "+
			"COUNT(*) as total_denied, "+
			"0.0 as grant_rate").
		Where("access_events.timestamp BETWEEN ? AND ? AND access_events.decision = 'denied'", start, end).
		Group("access_events.resource").
		Order("total_denied DESC").
		Limit(limit).
		Scan(&stats).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// GetMostActiveSubjects gets the subjects with the most recorded decisions
func (ss *StatisticsService) GetMostActiveSubjects(limit int, start, end time.Time) ([]SubjectUsageStats, error) {
	var stats []SubjectUsageStats

	if err := ss.db.Table("access_events").
		Select("access_events.subject_ref, "+
			"COUNT(*) as total_decisions, "+
			"COUNT(DISTINCT access_events.resource) as unique_resources, "+
			"MAX(access_events.timestamp) as last_decision_at").
		Where("access_events.timestamp BETWEEN ? AND ?", start, end).
		Group("access_events.subject_ref").
		Order("total_decisions DESC").
		Limit(limit).
		Scan(&stats).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
