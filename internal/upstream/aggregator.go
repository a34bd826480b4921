package upstream

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnada/counsellor/internal/models"
)

// Aggregator fans out parallel fetches for the six record categories and
// reconciles the results into one StudentRecord. Aggregation itself never
// fails: total failure of all six fetches still yields a record with all
// categories empty.
type Aggregator struct {
	gateway *Gateway
	logger  *zap.Logger
}

// NewAggregator creates an aggregator using the given gateway.
func NewAggregator(gateway *Gateway, logger *zap.Logger) *Aggregator {
	return &Aggregator{gateway: gateway, logger: logger}
}

// Aggregate gathers the six record categories for the student. Absent or
// failed categories are left nil; the record is valid regardless. The caller
// is responsible for verifying login credentials independently.
func (a *Aggregator) Aggregate(ctx context.Context, studentID, name string) *models.StudentRecord {
	id := url.PathEscape(studentID)

	var (
		profile, attendance, scores    any
		enrollment, assignments, exams any
		wg                             sync.WaitGroup
	)

	fetch := func(dst *any, path string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if doc, ok := a.gateway.FetchJSON(ctx, path); ok {
				*dst = doc
			}
		}()
	}

	fetch(&profile, "students/"+id)
	fetch(&attendance, "student/attendance/summary/monthly/"+id+"/")
	fetch(&scores, "student/ExamData/"+id+"/")
	fetch(&enrollment, "students/enrollment/")
	fetch(&assignments, "student/assignments/"+id+"/")
	fetch(&exams, "student/ExamList/"+id+"/")
	wg.Wait()

	record := &models.StudentRecord{
		StudentID:   studentID,
		Name:        name,
		LastLogin:   time.Now(),
		Attendance:  attendance,
		Assignments: assignments,
		ExamList:    exams,
		Scores:      scores,
	}

	// The profile endpoint sometimes answers with the whole student
	// collection; reconcile it down to one document.
	if list, ok := profile.([]any); ok {
		match := MatchStudent(list, studentID, name)
		if match.Outcome == MatchFallback {
			a.logger.Debug("profile resolved by fallback", zap.String("student_id", studentID))
		}
		record.Profile = match.Doc
	} else {
		record.Profile = profile
	}

	if list, ok := enrollment.([]any); ok {
		record.Enrollment = filterEnrollment(list, studentID)
	} else {
		record.Enrollment = enrollment
	}

	// Scores endpoint may require an exam id; retry with the first one
	// from the exam list when the direct fetch came back empty.
	if record.Scores == nil {
		if examID := firstExamID(exams); examID != "" {
			path := fmt.Sprintf("student/ExamData/%s/%s/", id, url.PathEscape(examID))
			if doc, ok := a.gateway.FetchJSON(ctx, path); ok {
				record.Scores = doc
			}
		}
	}

	return record
}

// filterEnrollment keeps the rows belonging to the student. When no row
// matches, the whole collection is kept as a best-effort fallback.
func filterEnrollment(list []any, studentID string) any {
	matched := make([]any, 0, len(list))
	for _, row := range list {
		if stringField(row, "student_id", "studentId", "id") == studentID {
			matched = append(matched, row)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

func firstExamID(exams any) string {
	list, ok := exams.([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	return stringField(list[0], "id", "exam_id", "ExamID")
}
