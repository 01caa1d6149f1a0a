package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
	"github.com/doannc02/exam-process-service/internal/validator"
)

func newExamSetFixture() (*fakeRepository, ExamSetService) {
	repo := newFakeRepository()
	repo.depts[1] = &models.Department{ID: 1, Name: "Information Technology"}
	repo.majors[1] = &models.Major{ID: 1, Name: "Software Engineering", DepartmentID: 1}
	repo.courses[1] = &models.Course{ID: 1, Name: "Algorithms", Code: "CS101", Credit: 3}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, NewExamSetService(repo, logger, validator.New())
}

func TestExamSetServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with resolved reference names", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		resp, err := svc.Create(ctx, &CreateExamSetRequest{
			Name: "Algorithms Final HK1", DepartmentID: 1, MajorID: 1, CourseID: 1, ExamQuantity: 2,
		}, actor)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if resp.Status != models.StatusInProgress {
			t.Errorf("expected in_progress, got %s", resp.Status)
		}
		if resp.CourseName != "Algorithms" || resp.CourseCode != "CS101" {
			t.Errorf("course display not resolved: %q %q", resp.CourseName, resp.CourseCode)
		}
		if resp.DepartmentName != "Information Technology" || resp.MajorName != "Software Engineering" {
			t.Errorf("reference displays not resolved: %q %q", resp.DepartmentName, resp.MajorName)
		}
	})

	t.Run("name conflict", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		setID := seedSet(repo, nil, models.StatusInProgress, 1)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		_, err := svc.Create(ctx, &CreateExamSetRequest{
			Name: repo.sets[setID].Name, DepartmentID: 1, MajorID: 1, CourseID: 1,
		}, actor)
		if !IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("reference lookup failure is not a validation pass", func(t *testing.T) {
		repo, _ := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := NewExamSetService(&refFailingRepository{repo}, logger, validator.New())
		before := len(repo.sets)

		_, err := svc.Create(ctx, &CreateExamSetRequest{
			Name: "Algorithms Final HK1", DepartmentID: 1, MajorID: 1, CourseID: 1, ExamQuantity: 2,
		}, actor)
		if err == nil {
			t.Fatal("expected the lookup failure to surface")
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			t.Fatalf("infrastructure failure must not look like bad input, got %v", verrs)
		}
		if len(repo.sets) != before {
			t.Error("failed create must not leave a set behind")
		}
	})

	t.Run("unknown references collected as field errors", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		_, err := svc.Create(ctx, &CreateExamSetRequest{
			Name: "Orphan Set", DepartmentID: 9, MajorID: 9, CourseID: 9,
		}, actor)
		errs := asValidationErrors(t, err)
		if len(errs) != 3 {
			t.Fatalf("expected 3 reference errors, got %d: %v", len(errs), errs)
		}
		for _, e := range errs {
			if e.Rule != "exists" {
				t.Errorf("expected exists rule for %s, got %s", e.Field, e.Rule)
			}
		}
	})
}

func TestExamSetServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("approved set is read-only", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		setID := seedSet(repo, nil, models.StatusApproved, 1)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		name := "renamed"
		_, err := svc.Update(ctx, &UpdateExamSetRequest{ID: setID, Name: &name}, actor)
		if !IsImmutableState(err) {
			t.Fatalf("expected immutable state error, got %v", err)
		}
	})

	t.Run("rename to a taken name", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		firstID := seedSet(repo, nil, models.StatusInProgress, 1)
		secondID := seedSet(repo, nil, models.StatusInProgress, 1)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		taken := repo.sets[firstID].Name
		_, err := svc.Update(ctx, &UpdateExamSetRequest{ID: secondID, Name: &taken}, actor)
		if !IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		setID := seedSet(repo, nil, models.StatusInProgress, 1)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		quantity := 5
		resp, err := svc.Update(ctx, &UpdateExamSetRequest{ID: setID, ExamQuantity: &quantity}, actor)
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if resp.ExamQuantity != 5 {
			t.Errorf("expected quantity 5, got %d", resp.ExamQuantity)
		}
		if resp.CourseID != 1 {
			t.Errorf("course must be untouched, got %d", resp.CourseID)
		}
	})
}

func TestExamSetServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("detaches exams instead of deleting them", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		setID := seedSet(repo, nil, models.StatusInProgress, 1)
		examID := seedExam(repo, setID, models.StatusInProgress)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		if err := svc.Delete(ctx, setID, actor); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, ok := repo.sets[setID]; ok {
			t.Error("set was not deleted")
		}
		exam, ok := repo.exams[examID]
		if !ok {
			t.Fatal("exam must survive set deletion")
		}
		if exam.ExamSetID != nil {
			t.Error("exam must be detached")
		}
	})

	t.Run("approved set cannot be deleted", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		setID := seedSet(repo, nil, models.StatusApproved, 1)
		actor := Actor{UserID: userID, Role: models.RoleTeacher}

		if err := svc.Delete(ctx, setID, actor); !IsImmutableState(err) {
			t.Fatalf("expected immutable state error, got %v", err)
		}
	})
}

func TestExamSetServiceAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("unassigned sets are readable by everyone", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		userID := seedUser(repo, models.RoleTeacher)
		setID := seedSet(repo, nil, models.StatusInProgress, 1)

		if _, err := svc.GetByID(ctx, setID, Actor{UserID: userID, Role: models.RoleTeacher}); err != nil {
			t.Fatalf("expected access to an unassigned set, got %v", err)
		}
	})

	t.Run("sets under a foreign proposal are hidden", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		ownerID := seedUser(repo, models.RoleTeacher)
		strangerID := seedUser(repo, models.RoleTeacher)
		proposalID := seedProposal(repo, ownerID, models.StatusInProgress)
		setID := seedSet(repo, &proposalID, models.StatusInProgress, 1)

		_, err := svc.GetByID(ctx, setID, Actor{UserID: strangerID, Role: models.RoleTeacher})
		if !IsPermissionDenied(err) {
			t.Fatalf("expected permission error, got %v", err)
		}

		if _, err := svc.GetByID(ctx, setID, Actor{UserID: ownerID, Role: models.RoleTeacher}); err != nil {
			t.Fatalf("owner must read the set, got %v", err)
		}
	})
}

func TestExamSetServiceList(t *testing.T) {
	ctx := context.Background()

	t.Run("teachers see their own and the unassigned pool explicitly", func(t *testing.T) {
		repo, svc := newExamSetFixture()
		ownerID := seedUser(repo, models.RoleTeacher)
		strangerID := seedUser(repo, models.RoleTeacher)
		proposalID := seedProposal(repo, ownerID, models.StatusInProgress)
		seedSet(repo, &proposalID, models.StatusInProgress, 1)
		seedSet(repo, nil, models.StatusInProgress, 1)

		resp, err := svc.List(ctx, repositories.ExamSetFilters{Page: 1, Size: 10}, Actor{UserID: strangerID, Role: models.RoleTeacher})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if resp.Total != 0 {
			t.Errorf("stranger should see no assigned sets, got %d", resp.Total)
		}

		unassigned := true
		resp, err = svc.List(ctx, repositories.ExamSetFilters{Unassigned: &unassigned, Page: 1, Size: 10}, Actor{UserID: strangerID, Role: models.RoleTeacher})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if resp.Total != 1 {
			t.Errorf("unassigned pool should be visible, got %d", resp.Total)
		}

		resp, err = svc.List(ctx, repositories.ExamSetFilters{Page: 1, Size: 10}, Actor{UserID: ownerID, Role: models.RoleTeacher})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if resp.Total != 1 {
			t.Errorf("owner should see the assigned set, got %d", resp.Total)
		}
	})
}

// refFailingRepository simulates a broken reference store: every department
// lookup fails at the infrastructure level.
type refFailingRepository struct{ *fakeRepository }

func (f *refFailingRepository) Reference() repositories.ReferenceRepository {
	return &failingReferenceRepo{f.fakeRepository.Reference()}
}

type failingReferenceRepo struct{ repositories.ReferenceRepository }

func (r *failingReferenceRepo) GetDepartmentsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Department, error) {
	return nil, errors.New("connection refused")
}
