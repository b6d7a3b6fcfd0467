package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"stepable/internal/model"
	"stepable/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrEmptyMessage = errors.New("message content is empty")

const historyLimit = 50

const welcomeMessage = "Hello! I'm your Stepable AI Assistant. I'm here to help you with your onboarding journey, " +
	"answer questions about development practices, and provide guidance on your learning path. How can I assist you today?"

var welcomeSuggestions = []string{
	"Explain Git branching strategies",
	"Help me review this code",
	"What's next in my learning path?",
	"Best practices for React components",
}

var mockResponses = []string{
	"Great question! Let me break this down for you. This concept is fundamental to modern development practices and here's how it works...",
	"I'd be happy to help you with that! Based on your current learning progress, here's what I recommend...",
	"That's an excellent topic to explore. Let me provide you with a comprehensive explanation and some practical examples...",
	"I can see you're working on improving your skills in this area. Here's a detailed guide to help you understand...",
	"This is a common challenge that many developers face. Let me share some best practices and solutions...",
}

var followUps = []string{
	"Can you provide more examples?",
	"What are common mistakes to avoid?",
	"How does this relate to my current project?",
	"Are there any tools that can help?",
	"What should I learn next?",
}

const exampleComponent = `// Example React component
function UserProfile({ user }) {
  const [isLoading, setIsLoading] = useState(false);

  const handleUpdate = async () => {
    setIsLoading(true);
    try {
      await updateUser(user.id, userData);
    } catch (error) {
      console.error('Update failed:', error);
    } finally {
      setIsLoading(false);
    }
  };

  return (
    <div className="user-profile">
      <h2>{user.name}</h2>
      <button onClick={handleUpdate} disabled={isLoading}>
        {isLoading ? 'Updating...' : 'Update Profile'}
      </button>
    </div>
  );
}`

type QuickAction struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

var quickActions = []QuickAction{
	{"explain", "Explain Concept", "Get detailed explanations of development concepts", "Can you explain the concept of"},
	{"code-review", "Code Review", "Get feedback on your code snippets", "Please review this code:"},
	{"git", "Git Help", "Learn Git commands and workflows", "Help me with Git:"},
	{"testing", "Testing Guidance", "Learn about testing strategies and best practices", "How do I test"},
	{"best-practices", "Best Practices", "Get recommendations for coding best practices", "What are the best practices for"},
}

// MockReply builds the canned assistant answer for a prompt. pick chooses an
// index in [0, n).
func MockReply(prompt string, pick func(n int) int) model.AssistantMessage {
	reply := model.AssistantMessage{
		Role:        model.RoleAssistant,
		Content:     mockResponses[pick(len(mockResponses))],
		Suggestions: append([]string(nil), followUps[:3]...),
	}
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "code") || strings.Contains(lower, "example") {
		reply.CodeBlock = &model.CodeBlock{Language: "javascript", Code: exampleComponent}
	}
	return reply
}

type AssistantService interface {
	// Send stores the user's message and the assistant's reply and returns the reply.
	Send(ctx context.Context, userID, content string) (*model.AssistantMessage, error)
	// History returns the conversation, starting with the welcome message.
	History(ctx context.Context, userID string) ([]model.AssistantMessage, error)
	QuickActions() []QuickAction
}

type assistantService struct {
	repo   repository.AssistantRepository
	pick   func(n int) int
	logger zerolog.Logger
}

func NewAssistantService(repo repository.AssistantRepository, pick func(n int) int, logger zerolog.Logger) AssistantService {
	if pick == nil {
		pick = rand.IntN
	}
	return &assistantService{
		repo:   repo,
		pick:   pick,
		logger: logger.With().Str("service", "AssistantService").Logger(),
	}
}

func (s *assistantService) Send(ctx context.Context, userID, content string) (*model.AssistantMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	userMsg := &model.AssistantMessage{ID: uuid.NewString(), UserID: userID, Role: model.RoleUser, Content: content}
	if err := s.repo.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	reply := MockReply(content, s.pick)
	reply.ID = uuid.NewString()
	reply.UserID = userID
	if err := s.repo.CreateMessage(ctx, &reply); err != nil {
		return nil, fmt.Errorf("store assistant reply: %w", err)
	}
	return &reply, nil
}

func (s *assistantService) History(ctx context.Context, userID string) ([]model.AssistantMessage, error) {
	msgs, err := s.repo.ListMessages(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	welcome := model.AssistantMessage{
		ID:          "welcome",
		UserID:      userID,
		Role:        model.RoleAssistant,
		Content:     welcomeMessage,
		Suggestions: welcomeSuggestions,
	}
	return append([]model.AssistantMessage{welcome}, msgs...), nil
}

func (s *assistantService) QuickActions() []QuickAction {
	return quickActions
}
