package placement

import (
	"context"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/htmlsanitize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"github.com/Saravanans7/PlaceMate/internal/app/system/normalize"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrNotPlacedHere is returned when a student shares an experience for a
// company they were not placed at.
var ErrNotPlacedHere = apperr.Forbidden("Only students placed at this company can share their experience")

// ExperienceInput is a student's interview write-up before moderation.
type ExperienceInput struct {
	Company     string
	Title       string
	Content     string
	Questions   []string
	Attachments []string
}

// SubmitExperience queues a write-up for moderation. Content is sanitized;
// plain text is converted to paragraphs first.
func (s *Service) SubmitExperience(ctx context.Context, studentID primitive.ObjectID, in ExperienceInput) (models.Experience, error) {
	title := normalize.Name(htmlsanitize.StripTags(in.Title))
	if title == "" {
		return models.Experience{}, apperr.Validation("title is required")
	}
	content := strings.TrimSpace(in.Content)
	if htmlsanitize.IsPlainText(content) {
		content = htmlsanitize.PlainTextToHTML(content)
	}
	content = htmlsanitize.Sanitize(content)
	if strings.TrimSpace(htmlsanitize.StripTags(content)) == "" {
		return models.Experience{}, apperr.Validation("content is required")
	}

	student, err := s.users.GetStudent(ctx, studentID)
	if err != nil {
		return models.Experience{}, err
	}
	company, err := s.companies.GetByName(ctx, in.Company)
	if err != nil {
		return models.Experience{}, err
	}
	if !student.IsPlaced || student.PlacedCompany == nil || *student.PlacedCompany != company.ID {
		return models.Experience{}, ErrNotPlacedHere
	}

	var questions []string
	for _, q := range in.Questions {
		if q = strings.TrimSpace(htmlsanitize.StripTags(q)); q != "" {
			questions = append(questions, q)
		}
	}
	var attachments []string
	for _, a := range in.Attachments {
		if a = strings.TrimSpace(a); a != "" {
			attachments = append(attachments, a)
		}
	}

	return s.experiences.Create(ctx, models.Experience{
		Student:           student.ID,
		StudentName:       student.Name,
		Company:           company.ID,
		CompanyNameCached: company.Name,
		CompanyNameCI:     company.NameCI,
		Title:             title,
		Content:           content,
		Questions:         questions,
		Attachments:       attachments,
	})
}

// Moderate approves or rejects a pending experience and tells the author.
func (s *Service) Moderate(ctx context.Context, id primitive.ObjectID, approve bool, reviewer primitive.ObjectID) (models.Experience, error) {
	status := models.ExperienceRejected
	if approve {
		status = models.ExperienceApproved
	}
	e, err := s.experiences.Decide(ctx, id, status, reviewer, s.now())
	if err != nil {
		return models.Experience{}, err
	}

	author, err := s.users.GetByID(ctx, e.Student)
	if err != nil {
		s.log.Warn("experience author not found; decision email skipped",
			zap.String("experience", e.ID.Hex()), zap.Error(err))
		return e, nil
	}
	s.send("experience_decision", mailer.BuildExperienceDecisionEmail(mailer.ExperienceDecisionData{
		Name:     author.Name,
		Company:  e.CompanyNameCached,
		Title:    e.Title,
		Approved: approve,
	}), author.Email)
	return e, nil
}

// DeleteExperience removes an experience. Students may delete only their
// own; staff may delete any.
func (s *Service) DeleteExperience(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, staff bool) error {
	if !staff {
		e, err := s.experiences.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.Student != actor {
			return apperr.Forbidden("You can only delete your own experience")
		}
	}
	return s.experiences.Delete(ctx, id)
}
