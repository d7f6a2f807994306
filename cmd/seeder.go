package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	"github.com/frahmantamala/discharge-registry/internal/department"
	departmentPostgres "github.com/frahmantamala/discharge-registry/internal/department/postgres"
	"github.com/frahmantamala/discharge-registry/internal/user"
)

var (
	seedAdminUsername string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the standard departments",
	Long:  `Install the hospital's standard departments and, when credentials are given, an administrator account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		env, err := openCLIEnv()
		if err != nil {
			return err
		}
		defer env.close()

		departments := department.NewService(departmentPostgres.NewDepartmentRepository(env.gorm), env.bus, env.logger)
		added, err := departments.Seed(ctx, department.StandardDepartments)
		if err != nil {
			return err
		}
		fmt.Printf("departments: %d added, %d already present\n", added, len(department.StandardDepartments)-added)

		if seedAdminUsername == "" {
			return nil
		}
		u, err := env.users.Create(ctx, user.CreateUserDTO{
			Username: seedAdminUsername,
			Password: seedAdminPassword,
			Role:     string(auth.RoleAdmin),
		})
		if internal.IsType(err, internal.ErrorTypeConflict) {
			fmt.Printf("admin %q already exists\n", seedAdminUsername)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("admin %q created (id %d)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminUsername, "admin-username", "", "also create an administrator with this username")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password for --admin-username")
}
