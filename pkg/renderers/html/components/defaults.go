package components

import (
	"bytes"
	"fmt"
	"html"
	"strings"
)

const (
	templatePrefix = "templates/components/"
)

// NewDefaultRegistry constructs a registry with one component per widget kind.
func NewDefaultRegistry() *Registry {
	registry := New()

	input := templateComponentRenderer("forms.input", templatePrefix+"input.tmpl")
	for _, name := range []string{NameText, NameNumber, NameDate, NamePhone, NameEmail, NamePassword} {
		registry.MustRegister(name, Descriptor{Renderer: input})
	}
	registry.MustRegister(NameTextarea, Descriptor{
		Renderer: templateComponentRenderer("forms.textarea", templatePrefix+"textarea.tmpl"),
	})
	registry.MustRegister(NameSelect, Descriptor{
		Renderer: templateComponentRenderer("forms.select", templatePrefix+"select.tmpl"),
		Scripts:  []Script{searchScript},
	})
	registry.MustRegister(NameMultiSelect, Descriptor{
		Renderer: templateComponentRenderer("forms.multiselect", templatePrefix+"select.tmpl"),
		Scripts:  []Script{searchScript},
	})
	registry.MustRegister(NameSwitch, Descriptor{
		Renderer: templateComponentRenderer("forms.switch", templatePrefix+"switch.tmpl"),
	})
	registry.MustRegister(NameHidden, Descriptor{
		Renderer: hiddenRenderer,
	})
	registry.MustRegister(NameGroup, Descriptor{
		Renderer: groupRenderer,
	})

	return registry
}

func templateComponentRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, field Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolvedTemplate := templateName
		if data.ThemePartials != nil {
			if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
				resolvedTemplate = candidate
			}
		}

		payload := map[string]any{
			"field":  field.TemplateData(),
			"config": data.Config,
		}
		rendered, err := data.Template.RenderTemplate(resolvedTemplate, payload)
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", resolvedTemplate, err)
		}
		buf.WriteString(strings.TrimSpace(rendered))
		return nil
	}
}

func hiddenRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	buf.WriteString(`<input type="hidden" id="`)
	buf.WriteString(html.EscapeString(field.ID))
	buf.WriteString(`" name="`)
	buf.WriteString(html.EscapeString(field.Path))
	buf.WriteString(`" value="`)
	buf.WriteString(html.EscapeString(field.Value))
	buf.WriteString(`">`)
	return nil
}

func groupRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	var builder strings.Builder
	labelID := field.ID + "-label"

	builder.WriteString(`<fieldset id="`)
	builder.WriteString(html.EscapeString(field.ID))
	builder.WriteString(`" class="fg-group grid grid-cols-12 gap-4" aria-labelledby="`)
	builder.WriteString(html.EscapeString(labelID))
	builder.WriteString(`">`)

	builder.WriteString(`<legend id="`)
	builder.WriteString(html.EscapeString(labelID))
	builder.WriteString(`" class="fg-legend col-span-12">`)
	builder.WriteString(html.EscapeString(field.Label))
	builder.WriteString(`</legend>`)

	if field.HelpHTML != "" {
		builder.WriteString(`<p id="`)
		builder.WriteString(html.EscapeString(field.HelpID()))
		builder.WriteString(`" class="fg-help col-span-12">`)
		builder.WriteString(field.HelpHTML)
		builder.WriteString(`</p>`)
	}

	if data.RenderChild != nil {
		for _, nested := range field.Descriptor.Nested {
			child, err := data.RenderChild(nested)
			if err != nil {
				return err
			}
			builder.WriteString(child)
		}
	}

	builder.WriteString(`</fieldset>`)
	buf.WriteString(builder.String())
	return nil
}

// searchScript refreshes the options of selects carrying data-search-url when
// the user types into the adjacent search box. Requests are debounced and
// responses older than the latest query are ignored.
var searchScript = Script{
	Defer: true,
	Inline: `(function(){
  document.querySelectorAll("[data-search-url]").forEach(function(input){
    var select = document.getElementById(input.getAttribute("data-search-for"));
    if (!select) { return; }
    var timer = null, seq = 0;
    input.addEventListener("input", function(){
      clearTimeout(timer);
      timer = setTimeout(function(){
        var mine = ++seq;
        var url = input.getAttribute("data-search-url");
        url += (url.indexOf("?") >= 0 ? "&" : "?") + "q=" + encodeURIComponent(input.value);
        fetch(url, {headers: {"Accept": "application/json"}}).then(function(res){
          return res.ok ? res.json() : [];
        }).then(function(options){
          if (mine !== seq) { return; }
          var chosen = Array.from(select.selectedOptions).map(function(o){ return o.value; });
          Array.from(select.options).forEach(function(o){ if (o.value && chosen.indexOf(o.value) < 0) { o.remove(); } });
          (options || []).forEach(function(opt){
            if (chosen.indexOf(opt.value) >= 0) { return; }
            var el = document.createElement("option");
            el.value = opt.value; el.textContent = opt.label;
            select.appendChild(el);
          });
        }).catch(function(){});
      }, 250);
    });
  });
})();`,
}
