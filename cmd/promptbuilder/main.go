// Package main provides a command-line interface for the prompt builder.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/teilomillet/promptbuilder"
	"github.com/teilomillet/promptbuilder/config"
	"github.com/teilomillet/promptbuilder/schema"
	"github.com/teilomillet/promptbuilder/utils"
)

const usage = `Usage: promptbuilder [flags] <command> [args]

Commands:
  categories                      list action categories
  actions [category]              list actions
  fields <action>                 describe the fields of an action
  render <action> [key=value...]  render the prompt of an action
  courses [term]                  list courses, optionally for one term
  lint                            check the catalog for schema defects
  schema                          print the catalog JSON Schema

Flags:
`

// cmdFlags holds all command-line flags
type cmdFlags struct {
	catalog  string
	input    string
	logLevel string
	defaults bool
	strict   bool
	tokens   bool
	set      map[string]bool
}

// parseFlags parses command-line flags
func parseFlags(args []string, stderr io.Writer) (*cmdFlags, []string, error) {
	flags := &cmdFlags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("promptbuilder", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.catalog, "catalog", "", "Catalog file (YAML or JSON) instead of the embedded one")
	fs.StringVar(&flags.input, "input", "", "Values file (YAML or JSON) for render")
	fs.StringVar(&flags.logLevel, "log-level", "warn", "Log level (off, error, warn, info, debug)")
	fs.BoolVar(&flags.defaults, "defaults", false, "Fill missing values from field defaults")
	fs.BoolVar(&flags.strict, "strict", false, "Reject values failing presence or type checks")
	fs.BoolVar(&flags.tokens, "tokens", false, "Print the token count of the rendered prompt to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(f *flag.Flag) { flags.set[f.Name] = true })
	return flags, fs.Args(), nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if len(rest) < 1 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}

	builder, err := createBuilder(flags, stderr)
	if err != nil {
		return exitWithError(stderr, "Error creating builder: %v\n", err)
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "categories":
		err = listCategories(builder, stdout)
	case "actions":
		err = listActions(builder, stdout, cmdArgs)
	case "fields":
		err = describeFields(builder, stdout, cmdArgs)
	case "render":
		err = renderAction(builder, flags, stdout, stderr, cmdArgs)
	case "courses":
		err = listCourses(builder, stdout, cmdArgs)
	case "lint":
		err = lintCatalog(builder, stdout)
	case "schema":
		err = printSchema(stdout)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return exitWithError(stderr, "Error: %v\n", err)
	}
	return 0
}

// exitWithError prints an error message and returns the failure status
func exitWithError(stderr io.Writer, format string, args ...any) int {
	_, _ = fmt.Fprintf(stderr, format, args...)
	return 1
}

// createBuilder creates a Builder from the environment overridden by flags
func createBuilder(flags *cmdFlags, stderr io.Writer) (*promptbuilder.Builder, error) {
	var level utils.LogLevel
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return nil, err
	}

	var opts []config.ConfigOption
	if flags.set["log-level"] {
		opts = append(opts, config.SetLogLevel(level))
	}
	if flags.catalog != "" {
		opts = append(opts, config.SetCatalogPath(flags.catalog))
	}
	if flags.set["defaults"] {
		opts = append(opts, config.SetApplyDefaults(flags.defaults))
	}
	if flags.set["strict"] {
		opts = append(opts, config.SetStrictValues(flags.strict))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	config.ApplyOptions(cfg, opts...)
	opts = append(opts, config.SetLogger(utils.NewLoggerTo(stderr, cfg.LogLevel)))

	return promptbuilder.New(opts...)
}

func listCategories(b *promptbuilder.Builder, stdout io.Writer) error {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, c := range b.Catalog().Categories() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d actions\n", c.ID, c.Title, len(b.Catalog().ActionsByCategory(c.ID)))
	}
	return w.Flush()
}

func listActions(b *promptbuilder.Builder, stdout io.Writer, args []string) error {
	actions := b.Catalog().Actions()
	if len(args) > 0 {
		actions = b.Catalog().ActionsByCategory(args[0])
		if len(actions) == 0 {
			return fmt.Errorf("no actions in category %q", args[0])
		}
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, a := range actions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", a.ID, a.Category, a.Title)
	}
	return w.Flush()
}

func describeFields(b *promptbuilder.Builder, stdout io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fields <action>")
	}
	a, err := b.Action(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, f := range a.Fields {
		var notes []string
		if f.Required {
			notes = append(notes, "required")
		}
		if f.Advanced {
			notes = append(notes, "advanced")
		}
		if f.Conditional != nil {
			notes = append(notes, fmt.Sprintf("when %s=%v", f.Conditional.Field, f.Conditional.Value))
		}
		if f.Default != nil {
			notes = append(notes, fmt.Sprintf("default %q", fmt.Sprint(f.Default)))
		}
		if len(f.Options) > 0 {
			values := make([]string, 0, len(f.Options))
			for _, o := range f.Options {
				if o.Value != "" {
					values = append(values, o.Value)
				}
			}
			notes = append(notes, "one of "+strings.Join(values, "|"))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.Kind, f.Label, strings.Join(notes, ", "))
	}
	return w.Flush()
}

func renderAction(b *promptbuilder.Builder, flags *cmdFlags, stdout, stderr io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: render <action> [key=value...]")
	}
	a, err := b.Action(args[0])
	if err != nil {
		return err
	}

	values := schema.FormValues{}
	if flags.input != "" {
		if values, err = readValues(flags.input); err != nil {
			return err
		}
	}
	for _, arg := range args[1:] {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid value %q, want key=value", arg)
		}
		values[key] = parseValue(a, key, raw)
	}

	res, err := b.Generate(a.ID, values)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, res.Prompt)
	if flags.tokens {
		_, _ = fmt.Fprintf(stderr, "%d tokens\n", res.Tokens)
	}
	return nil
}

// readValues reads a values file. YAML is a superset of JSON, so one
// decoder serves both.
func readValues(path string) (schema.FormValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}
	values := schema.FormValues{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse values %s: %w", path, err)
	}
	if values == nil {
		values = schema.FormValues{}
	}
	return values, nil
}

// parseValue converts a command-line value to the type its field expects.
// Checkboxes become booleans and file fields take comma-separated names.
func parseValue(a *schema.ActionDefinition, key, raw string) any {
	f, ok := a.Field(key)
	if !ok {
		return raw
	}
	switch f.Kind {
	case schema.KindCheckbox:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case schema.KindFiles:
		var files []schema.FileDescriptor
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				files = append(files, schema.FileDescriptor{Name: name})
			}
		}
		return files
	}
	return raw
}

func listCourses(b *promptbuilder.Builder, stdout io.Writer, args []string) error {
	term := ""
	if len(args) > 0 {
		term = args[0]
	}
	labels := b.Catalog().TermLabels()
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, c := range b.Catalog().CoursesByTerm(term) {
		label := labels[c.Term]
		if label == "" {
			label = c.Term
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, label)
	}
	return w.Flush()
}

func lintCatalog(b *promptbuilder.Builder, stdout io.Writer) error {
	issues := b.Lint()
	for _, issue := range issues {
		_, _ = fmt.Fprintln(stdout, issue.String())
	}
	if schema.HasErrors(issues) {
		return errors.New("catalog has lint errors")
	}
	return nil
}

func printSchema(stdout io.Writer) error {
	b, err := schema.JSONSchemaBytes()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}
