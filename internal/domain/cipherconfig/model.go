package cipherconfig

const (
	DefaultID   = "default"
	DefaultName = "Default cipher"

	KeyLength = 16
	IVLength  = 16
)

type Config struct {
	Seq       int64  `db:"id" json:"-"`
	ConfigID  string `db:"config_id" json:"config_id"`
	Name      string `db:"name" json:"name"`
	Key       string `db:"key" json:"-"`
	IV        string `db:"iv" json:"-"`
	CreatedAt string `db:"created_at" json:"created_at"`
	IsDefault bool   `db:"is_default" json:"is_default"`
}

// Material is the key/IV pair a login verdict is encrypted with.
type Material struct {
	ConfigID string `json:"config_id"`
	Key      string `json:"key"`
	IV       string `json:"iv"`
}

func (c *Config) Material() Material {
	return Material{ConfigID: c.ConfigID, Key: c.Key, IV: c.IV}
}
