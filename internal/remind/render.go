package remind

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/reminder.md
var templateFS embed.FS

var reminderTemplate = template.Must(
	template.New("reminder.md").
		Funcs(template.FuncMap{"ago": ago, "left": left}).
		ParseFS(templateFS, "templates/reminder.md"),
)

// Render renders the markdown message for r followed by the resources.
func Render(r *Reminder, resources []Resource) (string, error) {
	var b strings.Builder
	err := reminderTemplate.Execute(&b, struct {
		*Reminder
		Resources []Resource
	}{r, resources})
	if err != nil {
		return "", fmt.Errorf("rendering reminder for %s: %w", r.Student.Email, err)
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}

func ago(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == -1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", -days)
	}
}

func left(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}
