package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"checkops/model"
)

// PushNotifier delivers checklist workflow pushes over Firebase Cloud
// Messaging. Device tokens live in Firestore under usersLogin, keyed by the
// user's email; user and team membership come from MySQL.
type PushNotifier struct {
	app       *firebase.App
	firestore *firestore.Client
	db        *gorm.DB
	logger    *zap.Logger
}

func NewPushNotifier(app *firebase.App, fs *firestore.Client, db *gorm.DB, logger *zap.Logger) *PushNotifier {
	return &PushNotifier{app: app, firestore: fs, db: db, logger: logger}
}

func (n *PushNotifier) ChecklistCompleted(ctx context.Context, inst *model.ChecklistInstance) error {
	tokens, err := n.managerTokens(ctx, inst)
	if err != nil {
		return err
	}
	title := "Checklist submitted"
	body := fmt.Sprintf("%s is ready for verification", n.templateName(inst))
	return n.send(ctx, tokens, title, body, map[string]string{
		"type":       "checklist_completed",
		"instanceId": inst.InstanceID,
	})
}

func (n *PushNotifier) ChecklistVerified(ctx context.Context, inst *model.ChecklistInstance, approved bool) error {
	tokens, err := n.assigneeTokens(ctx, inst)
	if err != nil {
		return err
	}
	title := "Checklist approved"
	body := fmt.Sprintf("%s was approved", n.templateName(inst))
	if !approved {
		title = "Checklist rejected"
		body = fmt.Sprintf("%s was sent back for rework", n.templateName(inst))
	}
	return n.send(ctx, tokens, title, body, map[string]string{
		"type":       "checklist_verified",
		"instanceId": inst.InstanceID,
	})
}

func (n *PushNotifier) ChecklistUpcoming(ctx context.Context, inst *model.ChecklistInstance, minutesUntilStart int) error {
	tokens, err := n.assigneeTokens(ctx, inst)
	if err != nil {
		return err
	}
	title := "Checklist starting soon"
	body := fmt.Sprintf("%s opens in %d minutes", n.templateName(inst), minutesUntilStart)
	return n.send(ctx, tokens, title, body, map[string]string{
		"type":       "checklist_upcoming",
		"instanceId": inst.InstanceID,
	})
}

func (n *PushNotifier) templateName(inst *model.ChecklistInstance) string {
	if inst.Template != nil {
		return inst.Template.Name
	}
	return "A checklist"
}

// assigneeTokens resolves device tokens for the instance's assignee: the user
// itself, or every member of the assigned team.
func (n *PushNotifier) assigneeTokens(ctx context.Context, inst *model.ChecklistInstance) ([]string, error) {
	var users []model.User
	query := n.db.WithContext(ctx).Select("user_id", "email")
	if inst.AssigneeType == model.AssigneeTeam {
		query = query.Where("team_id = ?", inst.AssigneeID)
	} else {
		query = query.Where("user_id = ?", inst.AssigneeID)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return n.tokensFor(ctx, users), nil
}

// managerTokens resolves the verifiers to notify on completion: the team
// manager when the instance has a team, every admin otherwise.
func (n *PushNotifier) managerTokens(ctx context.Context, inst *model.ChecklistInstance) ([]string, error) {
	var users []model.User
	if inst.TeamID != nil {
		var team model.Team
		err := n.db.WithContext(ctx).Where("team_id = ?", *inst.TeamID).First(&team).Error
		if err == nil && team.ManagerID != nil {
			if err := n.db.WithContext(ctx).Select("user_id", "email").
				Where("user_id = ?", *team.ManagerID).Find(&users).Error; err != nil {
				return nil, err
			}
		}
	}
	if len(users) == 0 {
		if err := n.db.WithContext(ctx).Select("user_id", "email").
			Where("org_id = ? AND role IN ?", inst.OrgID, []string{"manager", "admin"}).
			Find(&users).Error; err != nil {
			return nil, err
		}
	}
	return n.tokensFor(ctx, users), nil
}

func (n *PushNotifier) tokensFor(ctx context.Context, users []model.User) []string {
	var tokens []string
	for _, u := range users {
		token, err := n.fcmToken(ctx, u.Email)
		if err != nil {
			n.logger.Debug("no FCM token for user",
				zap.String("email", u.Email), zap.Error(err))
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func (n *PushNotifier) fcmToken(ctx context.Context, email string) (string, error) {
	doc, err := n.firestore.Collection("usersLogin").Doc(email).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get document: %v", err)
	}

	data := doc.Data()
	fcmTokenInterface, exists := data["FMCToken"]
	if !exists {
		return "", fmt.Errorf("FCM token not found for user")
	}

	fcmToken, ok := fcmTokenInterface.(string)
	if !ok || fcmToken == "" {
		return "", fmt.Errorf("invalid or empty FCM token")
	}

	return fcmToken, nil
}

// send pushes a multicast message, batching at the FCM limit of 500 tokens
// per request.
func (n *PushNotifier) send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	client, err := n.app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting Messaging client: %v", err)
	}

	const batchSize = 500
	for i := 0; i < len(tokens); i += batchSize {
		end := i + batchSize
		if end > len(tokens) {
			end = len(tokens)
		}

		batch := tokens[i:end]
		message := &messaging.MulticastMessage{
			Data: data,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Tokens: batch,
		}

		response, err := client.SendEachForMulticast(ctx, message)
		if err != nil {
			n.logger.Warn("push batch failed",
				zap.Int("from", i), zap.Int("to", end-1), zap.Error(err))
			continue
		}
		if response.FailureCount > 0 {
			n.logger.Warn("push batch partially failed",
				zap.Int("success", response.SuccessCount),
				zap.Int("failure", response.FailureCount))
		}
	}

	return nil
}
