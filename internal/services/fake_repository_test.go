package services

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
)

// fakeRepository is an in-memory Repository. WithTransaction snapshots the
// state and restores it when fn fails, mirroring a rollback.
type fakeRepository struct {
	proposals map[uint]*models.Proposal
	links     []models.TeacherProposal
	sets      map[uint]*models.ExamSet
	exams     map[uint]*models.Exam
	users     map[uint]*models.User
	teachers  map[uint]*models.Teacher
	years     map[uint]*models.AcademicYear
	depts     map[uint]*models.Department
	majors    map[uint]*models.Major
	courses   map[uint]*models.Course

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		proposals: make(map[uint]*models.Proposal),
		sets:      make(map[uint]*models.ExamSet),
		exams:     make(map[uint]*models.Exam),
		users:     make(map[uint]*models.User),
		teachers:  make(map[uint]*models.Teacher),
		years:     make(map[uint]*models.AcademicYear),
		depts:     make(map[uint]*models.Department),
		majors:    make(map[uint]*models.Major),
		courses:   make(map[uint]*models.Course),
	}
}

func (f *fakeRepository) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) snapshot() *fakeRepository {
	c := newFakeRepository()
	c.nextID = f.nextID
	for k, v := range f.proposals {
		p := *v
		c.proposals[k] = &p
	}
	c.links = append(c.links, f.links...)
	for k, v := range f.sets {
		s := *v
		c.sets[k] = &s
	}
	for k, v := range f.exams {
		e := *v
		c.exams[k] = &e
	}
	for k, v := range f.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range f.teachers {
		t := *v
		c.teachers[k] = &t
	}
	c.years = f.years
	c.depts = f.depts
	c.majors = f.majors
	c.courses = f.courses
	return c
}

func (f *fakeRepository) restore(snap *fakeRepository) {
	f.proposals = snap.proposals
	f.links = snap.links
	f.sets = snap.sets
	f.exams = snap.exams
	f.users = snap.users
	f.teachers = snap.teachers
	f.nextID = snap.nextID
}

func (f *fakeRepository) Proposal() repositories.ProposalRepository   { return &fakeProposalRepo{f} }
func (f *fakeRepository) ExamSet() repositories.ExamSetRepository     { return &fakeExamSetRepo{f} }
func (f *fakeRepository) Exam() repositories.ExamRepository           { return &fakeExamRepo{f} }
func (f *fakeRepository) User() repositories.UserRepository           { return &fakeUserRepo{f} }
func (f *fakeRepository) Reference() repositories.ReferenceRepository { return &fakeReferenceRepo{f} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	snap := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== PROPOSAL =====

type fakeProposalRepo struct{ f *fakeRepository }

func (r *fakeProposalRepo) Create(ctx context.Context, proposal *models.Proposal) error {
	for _, p := range r.f.proposals {
		if p.PlanCode == proposal.PlanCode {
			return gorm.ErrDuplicatedKey
		}
	}
	proposal.ID = r.f.id()
	p := *proposal
	r.f.proposals[proposal.ID] = &p
	return nil
}

func (r *fakeProposalRepo) GetByID(ctx context.Context, id uint) (*models.Proposal, error) {
	p, ok := r.f.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *p
	for _, link := range r.f.links {
		if link.ProposalID == id {
			out.TeacherProposals = append(out.TeacherProposals, link)
		}
	}
	for _, set := range r.f.sets {
		if set.ProposalID != nil && *set.ProposalID == id {
			out.ExamSets = append(out.ExamSets, *set)
		}
	}
	return &out, nil
}

func (r *fakeProposalRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Proposal, error) {
	p, ok := r.f.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *p
	return &out, nil
}

func (r *fakeProposalRepo) GetByPlanCode(ctx context.Context, planCode string) (*models.Proposal, error) {
	for _, p := range r.f.proposals {
		if p.PlanCode == planCode {
			out := *p
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProposalRepo) Update(ctx context.Context, proposal *models.Proposal) error {
	if _, ok := r.f.proposals[proposal.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	p := *proposal
	p.TeacherProposals = nil
	p.ExamSets = nil
	r.f.proposals[proposal.ID] = &p
	return nil
}

func (r *fakeProposalRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := r.f.proposals[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.f.proposals, id)
	kept := r.f.links[:0]
	for _, link := range r.f.links {
		if link.ProposalID != id {
			kept = append(kept, link)
		}
	}
	r.f.links = kept
	return nil
}

func (r *fakeProposalRepo) List(ctx context.Context, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	var matched []*models.Proposal
	for _, p := range r.f.proposals {
		if filters.Search != nil && !strings.Contains(p.PlanCode, *filters.Search) {
			continue
		}
		if filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		if filters.Semester != nil && p.Semester != *filters.Semester {
			continue
		}
		if filters.UserID != nil {
			owned := false
			for _, link := range r.f.links {
				if link.ProposalID == p.ID && link.UserID == *filters.UserID {
					owned = true
					break
				}
			}
			if !owned {
				continue
			}
		}
		out := *p
		matched = append(matched, &out)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))

	start := (filters.Page - 1) * filters.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filters.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeProposalRepo) UpdateStatus(ctx context.Context, id uint, status models.ProposalStatus) error {
	p, ok := r.f.proposals[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeProposalRepo) CreateOwnership(ctx context.Context, link *models.TeacherProposal) error {
	link.ID = r.f.id()
	r.f.links = append(r.f.links, *link)
	return nil
}

func (r *fakeProposalRepo) GetOwnerUserIDs(ctx context.Context, proposalIDs []uint) (map[uint][]uint, error) {
	result := make(map[uint][]uint)
	wanted := make(map[uint]bool)
	for _, id := range proposalIDs {
		wanted[id] = true
	}
	for _, link := range r.f.links {
		if wanted[link.ProposalID] {
			result[link.ProposalID] = append(result[link.ProposalID], link.UserID)
		}
	}
	return result, nil
}

func (r *fakeProposalRepo) ExistsByPlanCode(ctx context.Context, planCode string, excludeID *uint) (bool, error) {
	for _, p := range r.f.proposals {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if p.PlanCode == planCode {
			return true, nil
		}
	}
	return false, nil
}

// ===== EXAM SET =====

type fakeExamSetRepo struct{ f *fakeRepository }

func (r *fakeExamSetRepo) Create(ctx context.Context, set *models.ExamSet) error {
	for _, s := range r.f.sets {
		if s.Name == set.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	set.ID = r.f.id()
	s := *set
	r.f.sets[set.ID] = &s
	return nil
}

func (r *fakeExamSetRepo) GetByID(ctx context.Context, id uint) (*models.ExamSet, error) {
	s, ok := r.f.sets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s
	for _, exam := range r.f.exams {
		if exam.ExamSetID != nil && *exam.ExamSetID == id {
			out.Exams = append(out.Exams, *exam)
		}
	}
	return &out, nil
}

func (r *fakeExamSetRepo) Update(ctx context.Context, set *models.ExamSet) error {
	if _, ok := r.f.sets[set.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s := *set
	s.Exams = nil
	r.f.sets[set.ID] = &s
	return nil
}

func (r *fakeExamSetRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := r.f.sets[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.f.sets, id)
	return nil
}

func (r *fakeExamSetRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.ExamSet, error) {
	var out []*models.ExamSet
	for _, id := range ids {
		if s, ok := r.f.sets[id]; ok {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeExamSetRepo) GetByProposalID(ctx context.Context, proposalID uint) ([]*models.ExamSet, error) {
	var out []*models.ExamSet
	for _, s := range r.f.sets {
		if s.ProposalID != nil && *s.ProposalID == proposalID {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeExamSetRepo) CountByProposalIDs(ctx context.Context, proposalIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	wanted := make(map[uint]bool)
	for _, id := range proposalIDs {
		wanted[id] = true
	}
	for _, s := range r.f.sets {
		if s.ProposalID != nil && wanted[*s.ProposalID] {
			result[*s.ProposalID]++
		}
	}
	return result, nil
}

func (r *fakeExamSetRepo) UpdateStatusBulk(ctx context.Context, ids []uint, status models.ProposalStatus) error {
	for _, id := range ids {
		if s, ok := r.f.sets[id]; ok {
			s.Status = status
		}
	}
	return nil
}

func (r *fakeExamSetRepo) AssignProposal(ctx context.Context, ids []uint, proposalID uint) error {
	for _, id := range ids {
		if s, ok := r.f.sets[id]; ok {
			pid := proposalID
			s.ProposalID = &pid
		}
	}
	return nil
}

func (r *fakeExamSetRepo) ClearProposal(ctx context.Context, proposalID uint, keepIDs []uint) error {
	keep := make(map[uint]bool)
	for _, id := range keepIDs {
		keep[id] = true
	}
	for _, s := range r.f.sets {
		if s.ProposalID != nil && *s.ProposalID == proposalID && !keep[s.ID] {
			s.ProposalID = nil
		}
	}
	return nil
}

func (r *fakeExamSetRepo) List(ctx context.Context, filters repositories.ExamSetFilters) ([]*models.ExamSet, int64, error) {
	var matched []*models.ExamSet
	for _, s := range r.f.sets {
		if filters.Search != nil && !strings.Contains(s.Name, *filters.Search) {
			continue
		}
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		if filters.ProposalID != nil && (s.ProposalID == nil || *s.ProposalID != *filters.ProposalID) {
			continue
		}
		if filters.Unassigned != nil && *filters.Unassigned && s.ProposalID != nil {
			continue
		}
		if filters.UserID != nil {
			if s.ProposalID == nil {
				continue
			}
			owned := false
			for _, link := range r.f.links {
				if link.ProposalID == *s.ProposalID && link.UserID == *filters.UserID {
					owned = true
					break
				}
			}
			if !owned {
				continue
			}
		}
		c := *s
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))

	start := (filters.Page - 1) * filters.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filters.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeExamSetRepo) ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error) {
	for _, s := range r.f.sets {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ===== EXAM =====

type fakeExamRepo struct{ f *fakeRepository }

func (r *fakeExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	for _, e := range r.f.exams {
		if e.ExamCode == exam.ExamCode || e.ExamName == exam.ExamName || e.AttachedFile == exam.AttachedFile {
			return gorm.ErrDuplicatedKey
		}
	}
	exam.ID = r.f.id()
	e := *exam
	r.f.exams[exam.ID] = &e
	return nil
}

func (r *fakeExamRepo) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	e, ok := r.f.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *e
	return &out, nil
}

func (r *fakeExamRepo) Update(ctx context.Context, exam *models.Exam) error {
	if _, ok := r.f.exams[exam.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	e := *exam
	r.f.exams[exam.ID] = &e
	return nil
}

func (r *fakeExamRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := r.f.exams[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.f.exams, id)
	return nil
}

func (r *fakeExamRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.Exam, error) {
	var out []*models.Exam
	for _, id := range ids {
		if e, ok := r.f.exams[id]; ok {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeExamRepo) GetByExamSetIDs(ctx context.Context, setIDs []uint) (map[uint][]*models.Exam, error) {
	result := make(map[uint][]*models.Exam)
	wanted := make(map[uint]bool)
	for _, id := range setIDs {
		wanted[id] = true
	}
	var all []*models.Exam
	for _, e := range r.f.exams {
		if e.ExamSetID != nil && wanted[*e.ExamSetID] {
			c := *e
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	for _, e := range all {
		result[*e.ExamSetID] = append(result[*e.ExamSetID], e)
	}
	return result, nil
}

func (r *fakeExamRepo) UpdateStatusBulk(ctx context.Context, ids []uint, status models.ProposalStatus) error {
	for _, id := range ids {
		if e, ok := r.f.exams[id]; ok {
			e.Status = status
		}
	}
	return nil
}

func (r *fakeExamRepo) ClearSet(ctx context.Context, setID uint) error {
	for _, e := range r.f.exams {
		if e.ExamSetID != nil && *e.ExamSetID == setID {
			e.ExamSetID = nil
		}
	}
	return nil
}

func (r *fakeExamRepo) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var matched []*models.Exam
	for _, e := range r.f.exams {
		if filters.Search != nil && !strings.Contains(e.ExamCode, *filters.Search) && !strings.Contains(e.ExamName, *filters.Search) {
			continue
		}
		if filters.Status != nil && e.Status != *filters.Status {
			continue
		}
		if filters.ExamSetID != nil && (e.ExamSetID == nil || *e.ExamSetID != *filters.ExamSetID) {
			continue
		}
		if filters.AcademicYearID != nil && e.AcademicYearID != *filters.AcademicYearID {
			continue
		}
		c := *e
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))

	start := (filters.Page - 1) * filters.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filters.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeExamRepo) ExistsByCode(ctx context.Context, code string, excludeID *uint) (bool, error) {
	for _, e := range r.f.exams {
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		if e.ExamCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeExamRepo) ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error) {
	for _, e := range r.f.exams {
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		if e.ExamName == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeExamRepo) ExistsByAttachedFile(ctx context.Context, file string, excludeID *uint) (bool, error) {
	for _, e := range r.f.exams {
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		if e.AttachedFile == file {
			return true, nil
		}
	}
	return false, nil
}

// ===== USER =====

type fakeUserRepo struct{ f *fakeRepository }

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	result := make(map[uint]*models.User)
	for _, id := range ids {
		if u, ok := r.f.users[id]; ok {
			c := *u
			result[id] = &c
		}
	}
	return result, nil
}

func (r *fakeUserRepo) GetTeachersByUserIDs(ctx context.Context, userIDs []uint) (map[uint]*models.Teacher, error) {
	result := make(map[uint]*models.Teacher)
	for _, id := range userIDs {
		if t, ok := r.f.teachers[id]; ok {
			c := *t
			result[id] = &c
		}
	}
	return result, nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, id uint) (bool, error) {
	_, ok := r.f.users[id]
	return ok, nil
}

// ===== REFERENCE =====

type fakeReferenceRepo struct{ f *fakeRepository }

func (r *fakeReferenceRepo) GetDepartmentsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Department, error) {
	result := make(map[uint]*models.Department)
	for _, id := range ids {
		if d, ok := r.f.depts[id]; ok {
			result[id] = d
		}
	}
	return result, nil
}

func (r *fakeReferenceRepo) GetMajorsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Major, error) {
	result := make(map[uint]*models.Major)
	for _, id := range ids {
		if m, ok := r.f.majors[id]; ok {
			result[id] = m
		}
	}
	return result, nil
}

func (r *fakeReferenceRepo) GetCoursesByIDs(ctx context.Context, ids []uint) (map[uint]*models.Course, error) {
	result := make(map[uint]*models.Course)
	for _, id := range ids {
		if c, ok := r.f.courses[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (r *fakeReferenceRepo) GetAcademicYearsByIDs(ctx context.Context, ids []uint) (map[uint]*models.AcademicYear, error) {
	result := make(map[uint]*models.AcademicYear)
	for _, id := range ids {
		if y, ok := r.f.years[id]; ok {
			result[id] = y
		}
	}
	return result, nil
}

func (r *fakeReferenceRepo) ExistsCourse(ctx context.Context, id uint) (bool, error) {
	_, ok := r.f.courses[id]
	return ok, nil
}

func (r *fakeReferenceRepo) ExistsAcademicYear(ctx context.Context, id uint) (bool, error) {
	_, ok := r.f.years[id]
	return ok, nil
}
