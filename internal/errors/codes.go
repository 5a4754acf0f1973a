package errors

// Kode error standar, format: CATEGORY_SPECIFIC_DETAIL.
// Frontend memetakan kode ini ke pesan yang ditampilkan.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // perlu login
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // email/password salah
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token kedaluwarsa
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // token tidak valid
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // token sudah dicabut
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // email sudah terdaftar

	// ==================== Validasi (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // input tidak valid
	ValidationRequired     = "VALIDATION_REQUIRED"      // field wajib

	// ==================== Produk (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND" // produk tidak ditemukan

	// ==================== Cart (CART_) ====================
	CartDeviceRequired = "CART_DEVICE_REQUIRED" // header device ID wajib
	CartSyncFailed     = "CART_SYNC_FAILED"     // gagal memuat cart dari server

	// ==================== Umum ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
)
