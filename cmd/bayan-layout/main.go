package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig"

	"github.com/vsariola/bayan"
	"github.com/vsariola/bayan/version"
)

// defaultTemplate draws one line per board row. Black buttons are marked
// with brackets.
const defaultTemplate = `{{ .Layout.Rows }} rows x {{ .Layout.Cols }} columns, starting at {{ (index .Buttons 0).Label }}
{{ repeat (mul .Layout.Cols 6 | int) "-" }}
{{ range $r, $row := .Rows -}}
{{ range $row }}{{ if .IsBlack }}{{ printf "[%s]" .Label | printf "%-6s" }}{{ else }}{{ printf " %s " .Label | printf "%-6s" }}{{ end }}{{ end }}
{{ end -}}
`

type data struct {
	Layout  bayan.Layout
	Buttons []bayan.Button
	Rows    [][]bayan.Button
}

func main() {
	def := bayan.DefaultLayout
	rows := flag.Int("rows", def.Rows, "Number of button rows (1-5).")
	cols := flag.Int("cols", def.Cols, "Number of buttons per row.")
	octave := flag.Int("octave", def.StartOctave, "Octave of the first button of the first row.")
	accidental := flag.String("accidental", def.Accidental.String(), "Spelling of the black buttons: sharp or flat.")
	jsonOut := flag.Bool("json", false, "Print the buttons as JSON.")
	templateFile := flag.String("template", "", "Render the layout with this text/template file instead of the built-in chart. Sprig functions are available.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	l := bayan.Layout{Rows: *rows, Cols: *cols, StartOctave: *octave}
	if err := l.Accidental.UnmarshalText([]byte(*accidental)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	var err error
	switch {
	case *jsonOut:
		err = writeJSON(os.Stdout, l)
	default:
		text := defaultTemplate
		if *templateFile != "" {
			var b []byte
			if b, err = os.ReadFile(*templateFile); err != nil {
				fmt.Fprintf(os.Stderr, "could not read template: %v\n", err)
				os.Exit(1)
			}
			text = string(b)
		}
		err = writeChart(os.Stdout, l, text)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newData(l bayan.Layout) data {
	l = l.Clamp()
	buttons := bayan.GenerateLayout(l)
	d := data{Layout: l, Buttons: buttons}
	for r := 0; r < l.Rows; r++ {
		d.Rows = append(d.Rows, buttons[r*l.Cols:(r+1)*l.Cols])
	}
	return d
}

func writeJSON(w io.Writer, l bayan.Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newData(l).Buttons); err != nil {
		return fmt.Errorf("could not encode buttons: %w", err)
	}
	return nil
}

func writeChart(w io.Writer, l bayan.Layout, text string) error {
	tmpl, err := template.New("layout").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("could not parse template: %w", err)
	}
	if err := tmpl.Execute(w, newData(l)); err != nil {
		return fmt.Errorf("could not render template: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Prints the button layout of a C-system accordion.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
