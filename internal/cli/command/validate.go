package command

import (
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/form"
)

// ValidateCommand checks one field of a built-in form.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate one field of a built-in form (" + strings.Join(form.SchemaNames(), ", ") + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "schema",
				Aliases: []string{"s"},
				Usage:   "Form schema",
				Value:   "login",
			},
			&cli.StringFlag{
				Name:     "field",
				Aliases:  []string{"f"},
				Usage:    "Field to validate",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "value",
				Usage: "Field value",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "Other form values as KEY=VALUE; they are not validated",
			},
		},
		Action: validate,
	}
}

type validateResult struct {
	Schema  string `json:"schema" yaml:"schema"`
	Field   string `json:"field" yaml:"field"`
	Valid   bool   `json:"valid" yaml:"valid"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

func validate(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	name := c.String("schema")
	schema, ok := form.Lookup(name)
	if !ok {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown schema %q (have %s)", name, strings.Join(form.SchemaNames(), ", ")))
	}
	field := c.String("field")
	if !slices.Contains(schema.Fields(), field) {
		return domain.ErrUnknownField.WithDetails(fmt.Sprintf("%s has no field %q", name, field))
	}

	others, err := parsePairs(c.StringSlice("set"), false)
	if err != nil {
		return err
	}
	data := make(map[string]any, len(others)+1)
	for k, v := range others {
		data[k] = v
	}
	if c.IsSet("value") {
		data[field] = c.String("value")
	}

	v := form.NewValidator(
		form.WithDelay(rt.Config.Form.Debounce),
		form.WithLogger(rt.Log),
		form.WithMetrics(rt.Metrics),
	)
	errs := form.NewErrors()
	if err := v.ValidateField(field, data, schema, errs); err != nil {
		return err
	}
	v.Flush()

	msg, _ := errs.Get(field)
	res := validateResult{Schema: name, Field: field, Valid: msg == "", Message: msg}
	if err := render(c, rt, res); err != nil {
		return err
	}
	if !res.Valid {
		return cli.Exit("", 1)
	}
	return nil
}
