package placement

import (
	"context"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/policy/eligibility"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrBlacklisted         = apperr.Forbidden("You are blacklisted and cannot apply for placements")
	ErrRegistrationNotOpen = apperr.Forbidden("Registration is not open")
)

// Apply records a registered application after the blacklist and
// eligibility gates pass. A withdrawn application is reactivated.
func (s *Service) Apply(ctx context.Context, registrationID, studentID primitive.ObjectID, answers []models.Answer) (models.Application, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return models.Application{}, err
	}
	if reg.Status != models.RegistrationOpen {
		return models.Application{}, ErrRegistrationNotOpen
	}
	student, err := s.users.GetStudent(ctx, studentID)
	if err != nil {
		return models.Application{}, err
	}

	blocked, err := s.blacklist.IsActive(ctx, studentID)
	if err != nil {
		return models.Application{}, err
	}
	if blocked {
		return models.Application{}, ErrBlacklisted
	}
	if res := eligibility.Evaluate(student.AcademicRecord, reg.Eligibility); !res.Eligible {
		return models.Application{}, apperr.Validation("%s", res.Reason())
	}

	clean, err := checkAnswers(reg.CustomFields, answers)
	if err != nil {
		return models.Application{}, err
	}
	return s.apps.Register(ctx, reg.ID, studentID, clean, s.now())
}

// checkAnswers keeps answers to known fields and requires the required ones.
func checkAnswers(fields []models.CustomField, answers []models.Answer) ([]models.Answer, error) {
	given := make(map[string]string, len(answers))
	for _, a := range answers {
		given[a.Key] = strings.TrimSpace(a.Value)
	}
	out := make([]models.Answer, 0, len(fields))
	for _, f := range fields {
		v := given[f.Key]
		if v == "" {
			if f.Required {
				label := f.Label
				if label == "" {
					label = f.Key
				}
				return nil, apperr.Validation("%s is required", label)
			}
			continue
		}
		out = append(out, models.Answer{Key: f.Key, Value: v})
	}
	return out, nil
}

// Withdraw flips the student's application to withdrawn while the
// registration is open.
func (s *Service) Withdraw(ctx context.Context, registrationID, studentID primitive.ObjectID) (models.Application, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return models.Application{}, err
	}
	if reg.Status != models.RegistrationOpen {
		return models.Application{}, ErrRegistrationNotOpen
	}
	return s.apps.Withdraw(ctx, reg.ID, studentID, s.now())
}

// Applicant is a registered application with the student's profile.
type Applicant struct {
	models.Application
	Student models.User `json:"student"`
}

// Applicants lists the registered applicants of a registration in the
// order they applied. Applications whose student no longer exists are
// skipped.
func (s *Service) Applicants(ctx context.Context, registrationID primitive.ObjectID) (models.Registration, []Applicant, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return models.Registration{}, nil, err
	}
	apps, err := s.apps.RegisteredFor(ctx, reg.ID)
	if err != nil {
		return models.Registration{}, nil, err
	}
	ids := make([]primitive.ObjectID, len(apps))
	for i, a := range apps {
		ids[i] = a.Student
	}
	users, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return models.Registration{}, nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]Applicant, 0, len(apps))
	for _, a := range apps {
		if u, ok := byID[a.Student]; ok {
			out = append(out, Applicant{Application: a, Student: u})
		}
	}
	return reg, out, nil
}

// StudentApplication is a registered application with its registration.
type StudentApplication struct {
	models.Application
	Registration models.Registration `json:"registration"`
}

// StudentApplications lists a student's registered applications, newest
// first. Applications whose registration was deleted are skipped.
func (s *Service) StudentApplications(ctx context.Context, studentID primitive.ObjectID) ([]StudentApplication, error) {
	apps, err := s.apps.RegisteredByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(apps))
	for i, a := range apps {
		ids[i] = a.Registration
	}
	regs, err := s.regs.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Registration, len(regs))
	for _, r := range regs {
		byID[r.ID] = r
	}
	out := make([]StudentApplication, 0, len(apps))
	for _, a := range apps {
		if r, ok := byID[a.Registration]; ok {
			out = append(out, StudentApplication{Application: a, Registration: r})
		}
	}
	return out, nil
}

// CheckEligibility evaluates the student against a registration without
// applying. Blacklisting is reported as ineligible.
func (s *Service) CheckEligibility(ctx context.Context, registrationID, studentID primitive.ObjectID) (eligibility.Result, bool, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return eligibility.Result{}, false, err
	}
	student, err := s.users.GetStudent(ctx, studentID)
	if err != nil {
		return eligibility.Result{}, false, err
	}
	blocked, err := s.blacklist.IsActive(ctx, studentID)
	if err != nil {
		return eligibility.Result{}, false, err
	}
	return eligibility.Evaluate(student.AcademicRecord, reg.Eligibility), blocked, nil
}
