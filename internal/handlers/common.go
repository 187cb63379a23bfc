// Package handlers provides the HTTP handlers for the trading console.
package handlers

import (
	"html/template"
	"log"
	"net/http"
)

// renderer executes cached page templates against the shared base layout.
type renderer struct {
	templates map[string]*template.Template
}

// render renders a template with the given data.
func (rn renderer) render(w http.ResponseWriter, name string, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}

	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, "Template not found: "+name, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}
