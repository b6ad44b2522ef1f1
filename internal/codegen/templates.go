package codegen

import "text/template"

// templateGroup mirrors the teacher sysdec generator's habit of compiling
// one template per output section up front and running prepared Go values
// through them, rather than building the whole artifact by hand with
// string concatenation. The section bodies themselves (register layout,
// mode unions, enums) are computed in render.go; the templates here only
// assemble the top-level devices/types sections around that text.
type templateGroup struct {
	devices *template.Template
	types   *template.Template
}

const prologueText = "import mmio;\n\n"

const devicesTemplateText = `devices {
{{- range .Devices}}
	{{.Name}} {
	{{- range .Instances}}
		{{.Name}} = ptr({{.TypePath}}, 0x{{.OffsetHex}});
	{{- end}}
	}
{{- end}}
}

`

const typesTemplateText = `types {
{{- range .Types}}
	{{.Text}};
{{- end}}
}
`

func createTemplates() *templateGroup {
	devicesTemplate := template.Must(template.New("devices").Parse(devicesTemplateText))
	typesTemplate := template.Must(template.New("types").Parse(typesTemplateText))
	return &templateGroup{devices: devicesTemplate, types: typesTemplate}
}

type deviceView struct {
	Name      string
	Instances []instanceView
}

type instanceView struct {
	Name      string
	TypePath  string
	OffsetHex string
}

type typeView struct {
	Text string
}
