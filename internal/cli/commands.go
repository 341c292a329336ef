package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pinn-product-builder/pinnbai-sub001/common/ident"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

func newMigrateCmd(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply registry migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.open(cmd.Context()); err != nil {
				return err
			}
			if err := rt.database.Migrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newProvisionCmd(rt *session) *cobra.Command {
	var workspaceID, slug, name string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the namespace for a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.open(cmd.Context()); err != nil {
				return err
			}
			ws, err := rt.services.Workspaces().Provision(cmd.Context(), service.ProvisionRequest{
				WorkspaceID: workspaceID,
				Slug:        slug,
				Name:        name,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Workspace %s provisioned as %s\n", ws.ID, ws.Namespace)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "id", "", "Workspace ID")
	cmd.Flags().StringVar(&slug, "slug", "", "Workspace slug")
	cmd.Flags().StringVar(&name, "name", "", "Workspace display name (defaults to the slug)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func newImportCmd(rt *session) *cobra.Command {
	var (
		workspace string
		dataset   string
		datasetID string
		file      string
		types     []string
		replace   bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV file into a workspace dataset",
		Long: "Reads a CSV file with a header row and imports it as a dataset. Header names become\n" +
			"column names; columns are text unless typed with --type name=type.",
		Example: "  pinnctl import --workspace acme --dataset \"Sales Jan\" --file sales.csv --type amount=currency --type date=date",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			typeMap, err := parseTypeFlags(types)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			columns, rows, err := readCSV(f, typeMap)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			if err := rt.open(cmd.Context()); err != nil {
				return err
			}
			res, err := rt.services.Datasets().Import(cmd.Context(), service.ImportRequest{
				WorkspaceSlug: workspace,
				DatasetID:     datasetID,
				DatasetName:   dataset,
				Columns:       columns,
				Rows:          rows,
				Replace:       replace,
			})
			if res != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d rows into %s (dataset %s, run %d)\n",
					res.RowCount, len(rows), res.TableName, res.DatasetID, res.ImportRunID)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace slug")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset name")
	cmd.Flags().StringVar(&datasetID, "dataset-id", "", "Dataset ID (generated when empty)")
	cmd.Flags().StringVar(&file, "file", "", "CSV file to import")
	cmd.Flags().StringArrayVar(&types, "type", nil, "Column type as name=type, repeatable")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace existing rows instead of appending")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newWorkspacesCmd(rt *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List provisioned workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.open(cmd.Context()); err != nil {
				return err
			}
			workspaces, err := rt.services.Workspaces().List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tSLUG\tNAMESPACE\tSTATUS\tCREATED")
			for _, ws := range workspaces {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					ws.ID, ws.Slug, ws.Namespace, ws.Status, ws.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of workspaces to list")
	return cmd
}

func newDatasetsCmd(rt *session) *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets of a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			namespace, err := ident.Namespace(workspace)
			if err != nil {
				return &service.InvalidNameError{Field: "workspace", Raw: workspace}
			}
			if err := rt.open(cmd.Context()); err != nil {
				return err
			}
			datasets, err := rt.services.Datasets().List(cmd.Context(), namespace)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tDISPLAY NAME\tROWS\tCOLUMNS\tCREATED")
			for _, ds := range datasets {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					ds.TableName, ds.DisplayName, ds.RowCount, len(ds.Columns), ds.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace slug")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func newDropCmd(rt *session) *cobra.Command {
	var workspace, dataset string

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop a dataset table and its catalog entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			namespace, err := ident.Namespace(workspace)
			if err != nil {
				return &service.InvalidNameError{Field: "workspace", Raw: workspace}
			}
			table, err := ident.Identifier(dataset)
			if err != nil {
				return &service.InvalidNameError{Field: "dataset", Raw: dataset}
			}
			if err := rt.open(cmd.Context()); err != nil {
				return err
			}
			if err := rt.services.Datasets().Delete(cmd.Context(), namespace, table); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dropped %s.%s\n", namespace, table)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace slug")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset name")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
