package quality

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound  = errors.New("dmaic project not found")
	ErrProjectCompleted = errors.New("dmaic project already completed")

	// ErrPhaseRegression is returned when a phase transition would move
	// the project backwards or sideways in the cycle. Only forward
	// transitions are valid; completion is tracked separately in Status.
	ErrPhaseRegression = errors.New("dmaic phase can only advance forward")
)

// DMAICManager runs improvement projects through the
// define/measure/analyze/improve/control cycle.
type DMAICManager struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDMAICManager(conn *gorm.DB) *DMAICManager {
	return &DMAICManager{db: conn, now: time.Now}
}

func (m *DMAICManager) CreateProject(title, problemStatement, goal, owner string, targetDays int) (*models.DMAICProject, error) {
	if targetDays <= 0 {
		targetDays = 90
	}

	project := &models.DMAICProject{
		Title:                title,
		ProblemStatement:     problemStatement,
		Goal:                 goal,
		Owner:                owner,
		CurrentPhase:         string(types.PhaseDefine),
		Status:               "active",
		TargetCompletionDate: m.now().AddDate(0, 0, targetDays),
	}

	if err := m.db.Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// AdvancePhase moves a project to a later phase and logs the transition.
// Backward and same-phase transitions are rejected.
func (m *DMAICManager) AdvancePhase(projectID uint, next types.DMAICPhase, notes string) error {
	nextOrder, ok := types.DMAICPhaseOrder[next]
	if !ok {
		return fmt.Errorf("unknown dmaic phase %q", next)
	}

	project, err := m.project(projectID)
	if err != nil {
		return err
	}
	if project.Status == "completed" {
		return ErrProjectCompleted
	}

	currentOrder := types.DMAICPhaseOrder[types.DMAICPhase(project.CurrentPhase)]
	if nextOrder <= currentOrder {
		return fmt.Errorf("%w: %s -> %s", ErrPhaseRegression, project.CurrentPhase, next)
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(project).Update("current_phase", string(next)).Error
		if err != nil {
			return err
		}
		return tx.Create(&models.DMAICPhaseLog{
			ProjectID: projectID,
			Phase:     string(next),
			Notes:     notes,
		}).Error
	})
}

func (m *DMAICManager) AddMeasurement(projectID uint, metric string, value float64, notes string) error {
	if _, err := m.project(projectID); err != nil {
		return err
	}

	return m.db.Create(&models.DMAICMeasurement{
		ProjectID:   projectID,
		MetricName:  metric,
		MetricValue: value,
		Notes:       notes,
		MeasuredAt:  m.now(),
	}).Error
}

// CompleteProject marks a project completed from whatever phase it is
// in. The phase is left untouched; an abandoned project completed at
// "measure" keeps that history.
func (m *DMAICManager) CompleteProject(projectID uint, resultsSummary string, improvements map[string]any) error {
	project, err := m.project(projectID)
	if err != nil {
		return err
	}
	if project.Status == "completed" {
		return ErrProjectCompleted
	}

	achieved, err := json.Marshal(improvements)
	if err != nil {
		return err
	}

	completedAt := m.now()
	return m.db.Model(project).Updates(map[string]any{
		"status":                "completed",
		"results_summary":       resultsSummary,
		"improvements_achieved": achieved,
		"completed_at":          completedAt,
	}).Error
}

type DMAICDashboard struct {
	ActiveProjects    []models.DMAICProject `json:"active_projects"`
	CompletedProjects []models.DMAICProject `json:"completed_projects"`
	ProjectsByPhase   map[string]int64      `json:"projects_by_phase"`
	CurrentQuality    *SystemQualityReport  `json:"current_quality"`
	Recommendations   []Recommendation      `json:"improvement_recommendations"`
	SigmaBeltStatus   string                `json:"sigma_belt_status"`
}

func (m *DMAICManager) Dashboard(tracker *Tracker) (*DMAICDashboard, error) {
	var active []models.DMAICProject
	err := m.db.Where("status = ?", "active").Order("created_at DESC").Find(&active).Error
	if err != nil {
		return nil, err
	}

	var completed []models.DMAICProject
	err = m.db.Where("status = ?", "completed").
		Order("completed_at DESC").Limit(10).Find(&completed).Error
	if err != nil {
		return nil, err
	}

	byPhase := map[string]int64{}
	for _, p := range active {
		byPhase[p.CurrentPhase]++
	}

	report, err := tracker.SystemQuality(30)
	if err != nil {
		return nil, err
	}

	recommendations, err := tracker.Recommendations()
	if err != nil {
		return nil, err
	}

	return &DMAICDashboard{
		ActiveProjects:    active,
		CompletedProjects: completed,
		ProjectsByPhase:   byPhase,
		CurrentQuality:    report,
		Recommendations:   recommendations,
		SigmaBeltStatus:   SigmaBelt(report.SigmaLevel),
	}, nil
}

func (m *DMAICManager) project(projectID uint) (*models.DMAICProject, error) {
	var project models.DMAICProject
	if err := m.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", projectID, ErrProjectNotFound)
		}
		return nil, err
	}
	return &project, nil
}
