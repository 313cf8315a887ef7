package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lhoward/shiftgrid-api/pkg/config"
	"github.com/lhoward/shiftgrid-api/pkg/database"
)

var (
	jwtSecret    []byte
	exportSecret []byte
)

var jwtAlgorithm = jwt.SigningMethodHS256

// Configure installs the signing secrets. Call once at startup before
// issuing or verifying anything.
func Configure(cfg config.AuthConfig) {
	jwtSecret = []byte(cfg.JWTSecret)
	exportSecret = []byte(cfg.ExportSecret)
}

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func CreateToken(username string, isAdmin bool) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(jwtSecret)
}

// VerifyToken verifies a JWT token
func VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// EnsureAdminExists checks if any user exists, if not create an admin from
// the configured bootstrap account.
func EnsureAdminExists(db *gorm.DB, cfg config.AuthConfig) error {
	var count int64
	db.Model(&database.User{}).Count(&count)

	if count == 0 {
		hash, err := HashPassword(cfg.AdminPassword)
		if err != nil {
			return err
		}

		user := database.User{
			Username:     cfg.AdminUsername,
			PasswordHash: hash,
			FirstName:    "Admin",
			IsAdmin:      true,
		}

		err = db.Create(&user).Error
		if err == nil {
			println("Default admin user created: " + cfg.AdminUsername)
		}
		return err
	}
	return nil
}

// GenerateExportKey creates a signed export API key using HMAC-SHA256
func GenerateExportKey(name string) string {
	h := hmac.New(sha256.New, exportSecret)
	h.Write([]byte(name))
	signature := hex.EncodeToString(h.Sum(nil))
	return name + "." + signature
}

// VerifyExportKey validates an HMAC-signed export key
func VerifyExportKey(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("invalid key format")
	}

	name := parts[0]
	providedSignature := parts[1]

	h := hmac.New(sha256.New, exportSecret)
	h.Write([]byte(name))
	expectedSignature := hex.EncodeToString(h.Sum(nil))

	// Use constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(providedSignature), []byte(expectedSignature)) {
		return "", errors.New("invalid signature")
	}

	return name, nil
}
