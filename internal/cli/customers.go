package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/unclebandit/lunchly-backend/internal/model"
)

var (
	searchTerm string
	topLimit   int
	newFirst   string
	newLast    string
	newPhone   string
	newNotes   string
)

var customersCmd = &cobra.Command{
	Use:     "customers",
	Aliases: []string{"customer"},
	Short:   "List, rank and edit customers",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers ordered by last and first name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		customers, err := svc.List(cmd.Context(), searchTerm)
		if err != nil {
			return err
		}

		printCustomers(cmd.OutOrStdout(), customers)
		return nil
	},
}

var customersTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the customers with the most reservations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		rankings, err := svc.Top(cmd.Context(), topLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tRESERVATIONS")
		for _, r := range rankings {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", r.ID, r.FullName(), r.Count)
		}
		return tw.Flush()
	},
}

var customersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a customer and their reservations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[0])
		}

		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		details, err := svc.Details(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "#%d %s\n", details.ID, details.FullName)
		if details.Phone != "" {
			fmt.Fprintf(out, "Phone: %s\n", details.Phone)
		}
		if details.Notes != "" {
			fmt.Fprintf(out, "Notes: %s\n", details.Notes)
		}
		fmt.Fprintf(out, "Reservations: %d\n", len(details.Reservations))
		for _, r := range details.Reservations {
			fmt.Fprintf(out, "  %s  %d guests  %s\n", r.StartAt.Format(time.RFC3339), r.NumGuests, r.Notes)
		}
		return nil
	},
}

var customersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a customer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		c := &model.Customer{
			FirstName: newFirst,
			LastName:  newLast,
			Phone:     newPhone,
			Notes:     newNotes,
		}
		if err := svc.SaveCustomer(cmd.Context(), c); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added customer #%d %s\n", c.ID, c.FullName())
		return nil
	},
}

func init() {
	customersListCmd.Flags().StringVarP(&searchTerm, "search", "s", "", "only customers whose name contains this text")
	customersTopCmd.Flags().IntVarP(&topLimit, "limit", "n", 10, "number of customers to show")

	customersAddCmd.Flags().StringVar(&newFirst, "first", "", "first name")
	customersAddCmd.Flags().StringVar(&newLast, "last", "", "last name")
	customersAddCmd.Flags().StringVar(&newPhone, "phone", "", "phone number")
	customersAddCmd.Flags().StringVar(&newNotes, "notes", "", "notes")
	_ = customersAddCmd.MarkFlagRequired("first")
	_ = customersAddCmd.MarkFlagRequired("last")

	customersCmd.AddCommand(customersListCmd, customersTopCmd, customersGetCmd, customersAddCmd)
}

func printCustomers(w io.Writer, customers []model.Customer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tNOTES")
	for _, c := range customers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.FullName(), c.Phone, c.Notes)
	}
	_ = tw.Flush()
}
