package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/etulastrada/ideconfy/pkg/identicon"
)

// maxShelf is how many crafted identicons the preview keeps on screen.
const maxShelf = 6

var styleShelf = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorDim).
	Padding(0, 1)

// =============================================================================
// PreviewModel - live identicon of the typed text
// =============================================================================

// PreviewModel is the bubbletea model for the preview command. While the
// input is blank it shows the identicon of a random seed.
type PreviewModel struct {
	Input   string
	Seed    string
	Size    int
	Crafted []identicon.Identicon
}

// NewPreviewModel creates a preview with the given fallback seed.
func NewPreviewModel(seed string, size int) PreviewModel {
	return PreviewModel{Seed: seed, Size: size}
}

// Current returns the identicon being previewed.
func (m PreviewModel) Current() identicon.Identicon {
	content := m.Input
	if strings.TrimSpace(content) == "" {
		content = m.Seed
	}
	id, err := identicon.Generate(content, m.Size)
	if err != nil {
		return identicon.MustGenerate(m.Seed, m.Size)
	}
	return id
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		if strings.TrimSpace(m.Input) != "" {
			m.Crafted = append(m.Crafted, m.Current())
			m.Input = ""
		}
	case tea.KeyBackspace:
		if r := []rune(m.Input); len(r) > 0 {
			m.Input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.Input += " "
	case tea.KeyRunes:
		m.Input += string(key.Runes)
	}
	return m, nil
}

func (m PreviewModel) View() string {
	var b strings.Builder
	id := m.Current()

	b.WriteString(StyleTitle.Render("Ideconfy"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("type to preview  ⏎ craft  esc quit"))
	b.WriteString("\n\n")

	prompt := StyleDim.Render(iconInfo+" ") + StyleValue.Render(m.Input) + StyleDim.Render("▏")
	b.WriteString(prompt)
	b.WriteString("\n\n")
	b.WriteString(patternBlock(id))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s  %s…", id.Color.Hex(), id.Digest[:12])))
	b.WriteString("\n")

	if len(m.Crafted) > 0 {
		start := max(0, len(m.Crafted)-maxShelf)
		tiles := make([]string, 0, maxShelf)
		for _, c := range m.Crafted[start:] {
			tiles = append(tiles, styleShelf.Render(strings.TrimRight(patternBlock(c), "\n")))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Command
// =============================================================================

func (c *CLI) previewCommand() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Type text and watch its identicon update live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := identicon.ValidateSize(size); err != nil {
				return err
			}
			model := NewPreviewModel(identicon.RandomSeed(nil), size)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()), tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return err
			}

			m, ok := final.(PreviewModel)
			if !ok || len(m.Crafted) == 0 {
				return nil
			}
			printSuccess("Crafted %d identicons", len(m.Crafted))
			for _, id := range m.Crafted {
				printDetail("%s  %s", id.Color.Hex(), id.Content)
			}
			printNextStep("Render one", fmt.Sprintf("%s render %q", appName, m.Crafted[0].Content))
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", identicon.DefaultSize, "grid size")
	return cmd
}
