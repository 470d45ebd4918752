package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rithvik985/situated-learning-api/internal/models"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/pkg/ai"
	"github.com/Rithvik985/situated-learning-api/pkg/detect"
	"github.com/Rithvik985/situated-learning-api/pkg/extract"
)

type memoryCourseRepo struct {
	mu      sync.Mutex
	courses map[string]models.Course
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[string]models.Course)}
}

func (m *memoryCourseRepo) List(context.Context) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		results = append(results, course)
	}
	return results, nil
}

func (m *memoryCourseRepo) GetByID(_ context.Context, id string) (models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) FindByOffering(_ context.Context, title, academicYear string, semester int) (models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, course := range m.courses {
		if strings.EqualFold(strings.TrimSpace(title), course.Title) && course.AcademicYear == academicYear && course.Semester == semester {
			return course, nil
		}
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func (m *memoryCourseRepo) Create(_ context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) Update(_ context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[course.ID] = *course
	return nil
}

type memoryAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]models.Assignment
	order       []string
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[string]models.Assignment)}
}

func (m *memoryAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, id := range m.order {
		assignment := m.assignments[id]
		if filter.CourseID != nil && assignment.CourseID != *filter.CourseID {
			continue
		}
		if filter.Difficulty != nil && assignment.DifficultyLevel != *filter.Difficulty {
			continue
		}
		if filter.Selected != nil && assignment.IsSelected != *filter.Selected {
			continue
		}
		results = append(results, assignment)
	}
	return results, nil
}

func (m *memoryAssignmentRepo) GetByID(_ context.Context, id string) (models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	m.assignments[assignment.ID] = *assignment
	m.order = append(m.order, assignment.ID)
	return nil
}

func (m *memoryAssignmentRepo) CreateBatch(ctx context.Context, assignments []models.Assignment) error {
	for i := range assignments {
		if err := m.Create(ctx, &assignments[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) MarkSelected(_ context.Context, courseID, assignmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.assignments[assignmentID]
	if !ok || target.CourseID != courseID {
		return gorm.ErrRecordNotFound
	}
	for id, assignment := range m.assignments {
		if assignment.CourseID == courseID {
			assignment.IsSelected = id == assignmentID
			m.assignments[id] = assignment
		}
	}
	return nil
}

func assignmentFilterAll() repository.AssignmentFilter {
	return repository.AssignmentFilter{}
}

type memoryRubricRepo struct {
	mu      sync.Mutex
	rubrics map[string]models.Rubric
}

func newMemoryRubricRepo() *memoryRubricRepo {
	return &memoryRubricRepo{rubrics: make(map[string]models.Rubric)}
}

func (m *memoryRubricRepo) GetByID(_ context.Context, id string) (models.Rubric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rubric, ok := m.rubrics[id]
	if !ok {
		return models.Rubric{}, gorm.ErrRecordNotFound
	}
	return rubric, nil
}

func (m *memoryRubricRepo) ListByAssignment(_ context.Context, assignmentID string) ([]models.Rubric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.Rubric
	for _, rubric := range m.rubrics {
		for _, id := range rubric.AssignmentIDList() {
			if id == assignmentID {
				results = append(results, rubric)
				break
			}
		}
	}
	return results, nil
}

func (m *memoryRubricRepo) Create(_ context.Context, rubric *models.Rubric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rubric.ID == "" {
		rubric.ID = uuid.NewString()
	}
	m.rubrics[rubric.ID] = *rubric
	return nil
}

func (m *memoryRubricRepo) Update(_ context.Context, rubric *models.Rubric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rubrics[rubric.ID] = *rubric
	return nil
}

type memorySubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]models.Submission
	order       []string
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[string]models.Submission)}
}

func (m *memorySubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.Submission
	for _, id := range m.order {
		submission := m.submissions[id]
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		results = append(results, submission)
	}
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id string) (models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) GetByIDs(_ context.Context, ids []string) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.Submission
	for _, id := range ids {
		if submission, ok := m.submissions[id]; ok {
			results = append(results, submission)
		}
	}
	return results, nil
}

func (m *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	m.submissions[submission.ID] = *submission
	m.order = append(m.order, submission.ID)
	return nil
}

func (m *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[submission.ID] = *submission
	return nil
}

type memoryEvaluationRepo struct {
	mu          sync.Mutex
	evaluations map[string]models.Evaluation
	order       []string
}

func newMemoryEvaluationRepo() *memoryEvaluationRepo {
	return &memoryEvaluationRepo{evaluations: make(map[string]models.Evaluation)}
}

func (m *memoryEvaluationRepo) GetByID(_ context.Context, id string) (models.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evaluation, ok := m.evaluations[id]
	if !ok {
		return models.Evaluation{}, gorm.ErrRecordNotFound
	}
	return evaluation, nil
}

func (m *memoryEvaluationRepo) GetBySubmission(_ context.Context, submissionID string) (models.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		evaluation := m.evaluations[m.order[i]]
		if evaluation.SubmissionID == submissionID {
			return evaluation, nil
		}
	}
	return models.Evaluation{}, gorm.ErrRecordNotFound
}

func (m *memoryEvaluationRepo) ListByAssignment(_ context.Context, assignmentID string) ([]models.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.Evaluation
	for _, id := range m.order {
		evaluation := m.evaluations[id]
		if evaluation.AssignmentID == assignmentID {
			results = append(results, evaluation)
		}
	}
	return results, nil
}

func (m *memoryEvaluationRepo) Create(_ context.Context, evaluation *models.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	m.evaluations[evaluation.ID] = *evaluation
	m.order = append(m.order, evaluation.ID)
	return nil
}

func (m *memoryEvaluationRepo) Update(_ context.Context, evaluation *models.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations[evaluation.ID] = *evaluation
	return nil
}

type stubGenerator struct {
	failAfter int
	calls     int
	rubric    ai.RubricDraft
	rubricErr error
}

func (s *stubGenerator) GenerateAssignment(_ context.Context, req ai.AssignmentRequest) (ai.GeneratedAssignment, error) {
	s.calls++
	if s.failAfter > 0 && s.calls > s.failAfter {
		return ai.GeneratedAssignment{}, errors.New("model unavailable")
	}
	return ai.GeneratedAssignment{
		Title:       fmt.Sprintf("%s assignment %d", req.DifficultyLevel, s.calls),
		Description: "A situated task rooted in " + strings.Join(req.Domains, ", "),
	}, nil
}

func (s *stubGenerator) GenerateRubric(context.Context, ai.RubricRequest) (ai.RubricDraft, error) {
	if s.rubricErr != nil {
		return ai.RubricDraft{}, s.rubricErr
	}
	return s.rubric, nil
}

type stubEvaluator struct {
	output ai.EvaluationOutput
	err    error
	calls  int
}

func (s *stubEvaluator) Evaluate(context.Context, ai.EvaluationInput) (ai.EvaluationOutput, error) {
	s.calls++
	if s.err != nil {
		return ai.EvaluationOutput{}, s.err
	}
	return s.output, nil
}

type stubExtractor struct {
	result extract.Result
	err    error
}

func (s *stubExtractor) Extract(context.Context, string, []byte) (extract.Result, error) {
	if s.err != nil {
		return extract.Result{}, s.err
	}
	return s.result, nil
}

type stubDetector struct {
	analysis detect.Analysis
	err      error
}

func (s *stubDetector) Analyze(context.Context, string) (detect.Analysis, error) {
	if s.err != nil {
		return detect.Analysis{}, s.err
	}
	return s.analysis, nil
}

type stubStorage struct {
	uploads map[string][]byte
	err     error
}

func newStubStorage() *stubStorage {
	return &stubStorage{uploads: make(map[string][]byte)}
}

func (s *stubStorage) Upload(_ context.Context, path string, reader io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.uploads[path] = content
	return "/uploads/" + path, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
}

func (p *recordingPublisher) published(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, s := range p.subjects {
		if s == subject {
			count++
		}
	}
	return count
}
