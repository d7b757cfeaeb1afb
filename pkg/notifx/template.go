package notifx

import (
	"bytes"
	"html/template"
	"sync"
)

// EntityUpdateTemplate is the name of the built-in email template used for
// entity-update notifications.
const EntityUpdateTemplate = "entity_update"

const entityUpdateTemplateBody = `<h2>{{.Title}}</h2>
<p>{{.Message}}</p>
<p><small>{{.UpdateType}} on {{.EntityType}} {{.EntityID}}</small></p>`

// TemplateRegistry stores and renders named html/templates.
type TemplateRegistry struct {
	templates map[string]*template.Template
	mu        sync.RWMutex
}

// NewTemplateRegistry creates a registry preloaded with the built-in
// entity-update template.
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{
		templates: make(map[string]*template.Template),
	}
	// Built-in template, panic on error would mean a broken binary.
	_ = r.Register(EntityUpdateTemplate, entityUpdateTemplateBody)
	return r
}

// Register parses and stores a template by name.
func (r *TemplateRegistry) Register(name, tmplString string) error {
	t, err := template.New(name).Parse(tmplString)
	if err != nil {
		return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name)
	}

	r.mu.Lock()
	r.templates[name] = t
	r.mu.Unlock()

	return nil
}

// Render executes a named template with the given data.
func (r *TemplateRegistry) Render(name string, data interface{}) (string, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return "", notifxErrors.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}

	return buf.String(), nil
}
