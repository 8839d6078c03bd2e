package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/provider"
	"github.com/symposiumhq/symposium/pkg/templates"
)

// Output is the validated, shape-extracted result of one generation.
type Output struct {
	Text       string
	Tone       string
	Points     []string
	Tensions   []string
	Agreements []string
	Takeaways  []string
}

// Outcome is the tagged result of one generation client call. RawText is
// carried on both branches so the caller can persist it for audit even when
// the attempt failed.
type Outcome struct {
	OK      bool
	Output  *Output
	RawText string
	Reason  models.FailureReason
	Detail  string
}

func success(output *Output, rawText string) Outcome {
	return Outcome{OK: true, Output: output, RawText: rawText}
}

func failure(reason models.FailureReason, rawText, detail string) Outcome {
	return Outcome{RawText: rawText, Reason: reason, Detail: detail}
}

// Client invokes the model provider and recovers structured output.
type Client struct {
	provider provider.Client
	logger   *slog.Logger
}

// NewClient creates a generation client over the given provider.
func NewClient(providerClient provider.Client, logger *slog.Logger) *Client {
	return &Client{
		provider: providerClient,
		logger:   logger.With("module", "generation_client"),
	}
}

// Generate performs one provider call and classifies the result. Provider
// errors are transport failures; recovery or schema failures are malformed
// output. The raw text is never discarded.
func (c *Client) Generate(ctx context.Context, req provider.Request, template *templates.Template) Outcome {
	rawText, err := c.provider.Complete(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "provider call failed", "template", template.Key, "error", err)

		return failure(models.FailureTransport, rawText, err.Error())
	}

	parsed, err := ParseStructured(rawText)
	if err != nil {
		c.logger.WarnContext(ctx, "structured output recovery failed", "template", template.Key, "error", err)

		return failure(models.FailureMalformedOutput, rawText, err.Error())
	}

	err = validateShape(parsed, template)
	if err != nil {
		c.logger.WarnContext(ctx, "output failed shape validation", "template", template.Key, "error", err)

		return failure(models.FailureMalformedOutput, rawText, err.Error())
	}

	return success(extractOutput(parsed, template.Shape), rawText)
}

func validateShape(parsed map[string]any, template *templates.Template) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(template.Schema),
		gojsonschema.NewGoLoader(parsed),
	)
	if err != nil {
		return fmt.Errorf("schema validation errored: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("output does not match %s shape: %s", template.Shape, strings.Join(details, "; "))
	}

	return nil
}

func extractOutput(parsed map[string]any, shape templates.Shape) *Output {
	output := &Output{}

	switch shape {
	case templates.ShapeText:
		output.Text, _ = parsed["text"].(string)
		output.Tone, _ = parsed["tone"].(string)
	case templates.ShapePoints:
		output.Points = stringSlice(parsed["points"])
	case templates.ShapeSynthesis:
		output.Tensions = stringSlice(parsed["tensions"])
		output.Agreements = stringSlice(parsed["agreements"])
		output.Takeaways = stringSlice(parsed["takeaways"])
	}

	return output
}

func stringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}

	result := make([]string, 0, len(items))

	for _, item := range items {
		if text, ok := item.(string); ok {
			result = append(result, text)
		}
	}

	return result
}
