package batchcmd

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/imagemeta/internal/config"
	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/translation"
	"github.com/spf13/cobra"
)

// NewTranslateCmd creates the translate command, which runs the keyword translation step alone
func NewTranslateCmd() *cobra.Command {
	var from string
	var to string
	var pf providerFlags

	cmd := &cobra.Command{
		Use:     "translate KEYWORD",
		Short:   "Translate a keyword the way generation does before prompting",
		Example: `  imagemeta translate "собака" --from ru --to en`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := models.Languages{Interface: from, Metadata: to}
			if err := validateLanguages(langs); err != nil {
				return err
			}

			svc, err := newService(pf.apply(config.Load()))
			if err != nil {
				return err
			}

			result := translation.NewGate(svc).Translate(cmd.Context(), strings.Join(args, " "), langs)
			if result.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Translation failed, keeping original: %v\n", result.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", languages.Default, "Language the keyword is written in")
	cmd.Flags().StringVar(&to, "to", languages.Default, "Language to translate into")
	pf.register(cmd)

	return cmd
}
