package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/models"
)

// createStaffUser handles the -create-user name:password flag. An existing
// username gets its password reset instead of failing, which is how staff
// recover a lost login.
func createStaffUser(db *gorm.DB, spec string) error {
	name, password, ok := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" || password == "" {
		return fmt.Errorf("formato esperado: nome:senha")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("gerando hash de senha: %w", err)
	}

	var user models.StaffUser
	err = db.Where("username = ?", name).First(&user).Error
	switch {
	case err == nil:
		user.PasswordHash = string(hash)
		if err := db.Save(&user).Error; err != nil {
			return err
		}
		slog.Info("senha atualizada", "username", name)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.StaffUser{Username: name, PasswordHash: string(hash)}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		slog.Info("usuário criado", "username", name)
	default:
		return err
	}
	return nil
}

// deleteStaffUser handles the -delete-user flag.
func deleteStaffUser(db *gorm.DB, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("informe o nome do usuário")
	}
	res := db.Where("username = ?", username).Delete(&models.StaffUser{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("usuário %q não encontrado", username)
	}
	slog.Info("usuário removido", "username", username)
	return nil
}
