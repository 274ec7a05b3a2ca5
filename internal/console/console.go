package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aiexpress/campaignctl/internal/campaign"
	"github.com/aiexpress/campaignctl/internal/chat"
	"github.com/aiexpress/campaignctl/internal/models"
	"go.uber.org/zap"
)

var errQuit = errors.New("quit")

const welcome = `AI Express - consola de campanas
Escribi un mensaje para hablar con el agente, o un comando:
  /campaign <producto> | <publico>  enviar una campana nueva
  /latest                           ver la ultima campana
  /refresh                          actualizar los resultados generados
  /history                          ver campanas anteriores
  /toggle <n>                       expandir o contraer una campana del historial
  /reset                            reiniciar la conversacion
  /help                             volver a mostrar esta ayuda
  /quit                             salir`

// Console is the interactive session over the conversation store, the
// campaign tracker and the history view.
type Console struct {
	chat    *chat.Store
	tracker *campaign.Tracker
	history *campaign.History
	in      io.Reader
	out     io.Writer
	logger  *zap.Logger

	rendered  int
	lastToken uint64
}

func New(chatStore *chat.Store, tracker *campaign.Tracker, history *campaign.History, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{
		chat:    chatStore,
		tracker: tracker,
		history: history,
		in:      in,
		out:     out,
		logger:  logger,
	}
}

// Run reads lines until EOF or /quit. Plain lines become chat turns; lines
// starting with "/" are commands.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, welcome)

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if err := c.handleCommand(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(c.out, "⚠️  %s\n", err)
			}
			continue
		}

		c.sendTurn(ctx, line)
	}
	return scanner.Err()
}

func (c *Console) sendTurn(ctx context.Context, text string) {
	err := c.chat.Send(ctx, text)
	state := c.chat.State()
	c.printNewMessages(state)
	if err != nil {
		fmt.Fprintf(c.out, "⚠️  %s\n", state.Err)
	}
}

// printNewMessages renders everything appended since the last render.
func (c *Console) printNewMessages(state chat.State) {
	for ; c.rendered < len(state.Messages); c.rendered++ {
		msg := state.Messages[c.rendered]
		switch msg.Role {
		case models.RoleUser:
			fmt.Fprintf(c.out, "vos: %s\n", msg.Content)
		case models.RoleAssistant:
			fmt.Fprintf(c.out, "agente: %s\n", msg.Content)
		default:
			fmt.Fprintf(c.out, "[%s] %s\n", msg.Role, msg.Content)
		}
	}
}

func (c *Console) handleCommand(ctx context.Context, line string) error {
	command, args, _ := strings.Cut(line, " ")
	switch command {
	case "/help":
		fmt.Fprintln(c.out, welcome)
	case "/reset":
		c.chat.Reset()
		c.rendered = 0
		fmt.Fprintln(c.out, "Conversacion reiniciada.")
	case "/campaign":
		return c.submitCampaign(ctx, args)
	case "/latest":
		return c.showLatest(ctx, "")
	case "/refresh":
		return c.showLatest(ctx, string(models.StatusCompleted))
	case "/history":
		return c.showHistory(ctx)
	case "/toggle":
		return c.toggle(args)
	case "/quit", "/salir":
		fmt.Fprintln(c.out, "Hasta luego!")
		return errQuit
	default:
		fmt.Fprintln(c.out, "Comando desconocido. Usa /help para ver los comandos disponibles.")
	}
	return nil
}

func (c *Console) submitCampaign(ctx context.Context, args string) error {
	producto, publico, found := strings.Cut(args, "|")
	if !found {
		return errors.New("uso: /campaign <producto> | <publico objetivo>")
	}

	record, err := c.tracker.Submit(ctx, models.CampaignPayload{
		Producto:        producto,
		PublicoObjetivo: publico,
	})
	if err != nil {
		return errors.New(c.tracker.State().Err)
	}

	fmt.Fprintf(c.out, "Campana enviada (estado: %s). En breve vas a ver el resultado con /refresh.\n", record.Status)
	c.refreshIfSignaled(ctx)
	return nil
}

// refreshIfSignaled performs the one re-fetch each refresh-token increment
// asks for.
func (c *Console) refreshIfSignaled(ctx context.Context) {
	token := c.tracker.RefreshToken()
	if token == c.lastToken {
		return
	}
	c.lastToken = token
	record, err := c.tracker.LoadLatest(ctx, string(models.StatusCompleted))
	if err != nil {
		fmt.Fprintf(c.out, "⚠️  %s\n", err)
		return
	}
	if record == nil {
		fmt.Fprintln(c.out, "Generando resultados... proba /refresh en unos segundos.")
		return
	}
	RenderRecord(c.out, record)
}

func (c *Console) showLatest(ctx context.Context, status string) error {
	record, err := c.tracker.LoadLatest(ctx, status)
	if err != nil {
		return err
	}
	if record == nil {
		fmt.Fprintln(c.out, "Todavia no se guardo ninguna campana.")
		return nil
	}
	RenderRecord(c.out, record)
	return nil
}

func (c *Console) showHistory(ctx context.Context) error {
	if err := c.history.Load(ctx); err != nil {
		return err
	}
	c.renderHistory()
	return nil
}

func (c *Console) toggle(args string) error {
	index, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return errors.New("uso: /toggle <numero de campana>")
	}
	state := c.history.State()
	if index < 1 || index > len(state.Items) {
		return fmt.Errorf("no hay una campana %d en el historial", index)
	}
	c.history.Toggle(state.Items[index-1].ID)
	c.renderHistory()
	return nil
}

func (c *Console) renderHistory() {
	state := c.history.State()
	if len(state.Items) == 0 {
		fmt.Fprintln(c.out, "El historial esta vacio.")
		return
	}
	for i, item := range state.Items {
		marker := "+"
		if item.ID == state.Expanded {
			marker = "-"
		}
		fmt.Fprintf(c.out, "%s %d. [%s] %s -> %s (%s)\n",
			marker, i+1, strings.ToUpper(string(item.Status)),
			item.Producto, item.PublicoObjetivo,
			item.CreatedAt.Local().Format("02/01/2006 15:04"))
		if item.ID == state.Expanded {
			RenderRecord(c.out, &item)
		}
	}
}
