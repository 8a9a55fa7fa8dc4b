package image

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/records"
)

var addImage records.Image

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an uploaded image",
	Long: `Insert an images row for a file already uploaded to object storage.

The storage path must be unique.`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addImage.FileName, "file-name", "", "File name (required)")
	addCmd.Flags().StringVar(&addImage.ImagePath, "path", "", "Storage path (required)")
	addCmd.Flags().StringVar(&addImage.Description, "description", "", "Description")
	_ = addCmd.MarkFlagRequired("file-name")
	_ = addCmd.MarkFlagRequired("path")

	cmdutil.Requires(addCmd, func() config.Requirement { return config.NeedRecords })
}

func runAdd(cmd *cobra.Command, args []string) error {
	store, err := cmdutil.NewStore(cmdutil.Config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	img := addImage
	id, err := store.CreateImage(cmdutil.Context(cmd), &img)
	if err != nil {
		return err
	}
	img.ID = id
	logger.Info("Registered image", logger.RecordID(id), "image_path", img.ImagePath)

	return cmdutil.PrintOutput(cmd, imageView{img}, false, "")
}

type imageView struct {
	records.Image `yaml:",inline"`
}

func (v imageView) SummaryPairs() [][2]string {
	return [][2]string{
		{"ID", v.ID},
		{"File name", v.FileName},
		{"Path", v.ImagePath},
		{"Description", cmdutil.EmptyOr(v.Description, "-")},
	}
}
