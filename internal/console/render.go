package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/aiexpress/campaignctl/internal/models"
)

// RenderRecord writes a campaign record section by section: context first,
// then whatever copy the agent produced so far.
func RenderRecord(w io.Writer, record *models.CampaignRecord) {
	fmt.Fprintln(w, "── Contexto ──")
	fmt.Fprintf(w, "Producto: %s\n", record.Producto)
	fmt.Fprintf(w, "Publico objetivo: %s\n", record.PublicoObjetivo)
	fmt.Fprintf(w, "Estado: %s\n", strings.ToUpper(string(record.Status)))
	fmt.Fprintf(w, "Ultima actualizacion: %s\n", record.UpdatedAt.Local().Format("02/01/2006 15:04"))

	if record.Error != nil {
		fmt.Fprintf(w, "Error: %s\n", *record.Error)
	}

	result := record.Result
	if result.Empty() {
		fmt.Fprintln(w, "Estamos esperando los resultados del agente.")
		return
	}

	if len(result.Tweets) > 0 {
		fmt.Fprintln(w, "── Hilo de tweets ──")
		for i, tweet := range result.Tweets {
			fmt.Fprintf(w, "%d. %s\n", i+1, tweet)
		}
	}
	if result.LinkedinPost != nil {
		fmt.Fprintln(w, "── Post de LinkedIn ──")
		fmt.Fprintln(w, *result.LinkedinPost)
	}
	if result.InstagramPost != nil {
		fmt.Fprintln(w, "── Descripcion de Instagram ──")
		fmt.Fprintln(w, *result.InstagramPost)
	}
	if result.Resumen != nil {
		fmt.Fprintln(w, "── Resumen ──")
		fmt.Fprintln(w, *result.Resumen)
	}
}

// RenderList writes a compact one-line-per-record listing.
func RenderList(w io.Writer, records []models.CampaignRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "El historial esta vacio.")
		return
	}
	for i, record := range records {
		fmt.Fprintf(w, "%d. [%s] %s -> %s (%s)\n",
			i+1, strings.ToUpper(string(record.Status)),
			record.Producto, record.PublicoObjetivo,
			record.CreatedAt.Local().Format("02/01/2006 15:04"))
	}
}
