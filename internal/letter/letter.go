// Package letter generates cover messages for vacancy applications.
package letter

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/avolkov/hh-autoapply/internal/hh"
)

// Generator produces a cover message for a vacancy.
type Generator interface {
	Generate(v hh.Vacancy) string
}

// templates are filled with the vacancy name and the employer name, in that
// order. Applications go to Russian-speaking employers, so the text is
// Russian.
var templates = []string{
	`Здравствуйте!

Заинтересовала вакансия "%s" в %s.

Готов применить свои навыки и опыт для решения задач вашей команды.

С уважением!`,

	`Добрый день!

Рад возможности рассмотреть позицию "%s".

Уверен, что смогу принести пользу компании %s.

Буду рад обсудить детали!`,
}

// Compile-time check that TemplateGenerator implements Generator.
var _ Generator = (*TemplateGenerator)(nil)

// TemplateGenerator picks one of a fixed set of templates at random. The
// random source is injected so tests can pin the choice.
type TemplateGenerator struct {
	rng *rand.Rand
}

// NewTemplateGenerator creates a generator. A nil rng gets a time-seeded
// source.
func NewTemplateGenerator(rng *rand.Rand) *TemplateGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TemplateGenerator{rng: rng}
}

// Generate formats a template with the vacancy name and employer, falling
// back to generic wording when either is missing.
func (g *TemplateGenerator) Generate(v hh.Vacancy) string {
	name := v.Name
	if name == "" {
		name = "данную позицию"
	}
	employer := v.Employer.Name
	if employer == "" {
		employer = "вашей компании"
	}

	return fmt.Sprintf(templates[g.rng.Intn(len(templates))], name, employer)
}
