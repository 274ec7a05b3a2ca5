package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/aiexpress/campaignctl/internal/models"
)

// Copywriter produces deterministic, templated campaign copy. It stands in
// for the real generation flow so the whole submit/poll cycle can run
// locally without any AI provider: three tweets, one LinkedIn post, one
// Instagram caption and a closing summary.
type Copywriter struct {
	now func() time.Time
}

func NewCopywriter() *Copywriter {
	return &Copywriter{now: time.Now}
}

func (w *Copywriter) Generate(producto, publicoObjetivo string) models.CampaignResult {
	hashtags := hashtagsFor(producto, 3)

	tweets := []string{
		fmt.Sprintf("Descubri %s: pensado especialmente para %s. %s", producto, publicoObjetivo, strings.Join(hashtags, " ")),
		fmt.Sprintf("Si sos parte de %s, esto te interesa: %s ya esta disponible. Contanos que te parece.", publicoObjetivo, producto),
		fmt.Sprintf("Ultimo del hilo: %s no es para cualquiera, es para vos. Sumate. %s", producto, hashtags[0]),
	}

	linkedin := fmt.Sprintf(
		"Nos enorgullece presentar %s.\n\n"+
			"Trabajamos pensando en %s, y este lanzamiento lo refleja en cada detalle. "+
			"Creemos que la mejor manera de crecer es escuchar a quienes nos eligen.\n\n"+
			"Si queres saber mas, escribinos.",
		producto, publicoObjetivo)

	instagram := fmt.Sprintf(
		"%s ya esta aca ✨ Hecho para %s 🙌 %s",
		producto, publicoObjetivo, strings.Join(hashtags, " "))

	resumen := fmt.Sprintf(
		"Se genero un hilo de %d tweets, un post de LinkedIn y una descripcion de Instagram para %s, apuntando a %s.",
		len(tweets), producto, publicoObjetivo)

	generatedAt := w.now().UTC()
	return models.CampaignResult{
		Producto:        producto,
		PublicoObjetivo: publicoObjetivo,
		Tweets:          tweets,
		LinkedinPost:    &linkedin,
		InstagramPost:   &instagram,
		Resumen:         &resumen,
		GeneratedAt:     &generatedAt,
	}
}

// hashtagsFor builds up to max hashtags from the product's words, skipping
// short filler words.
func hashtagsFor(producto string, max int) []string {
	words := strings.Fields(strings.ToLower(producto))
	tags := make([]string, 0, max)
	for _, word := range words {
		cleaned := strings.Trim(word, ".,;:!?\"'")
		if len([]rune(cleaned)) < 4 {
			continue
		}
		tags = append(tags, "#"+cleaned)
		if len(tags) == max {
			break
		}
	}
	if len(tags) == 0 {
		tags = append(tags, "#lanzamiento")
	}
	return tags
}
