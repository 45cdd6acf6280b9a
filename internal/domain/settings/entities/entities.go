package entities

import (
	"fmt"
	"sort"
	"strconv"
)

// Setting keys
const (
	KeyUniqueOnly           = "uniqueOnly"
	KeyNeedToLoadImages     = "needToLoadImages"
	KeyImageLoadSize        = "imageLoadSize"
	KeyAlwaysHide           = "alwaysHide"
	KeyShowSensitiveContent = "showSensitiveContent"
	KeyAutoDownload         = "autoDownload"
	KeyAutoDownloadLimit    = "autoDownloadLimit"
)

// ImageLoadSizes are the photo size letters a preview may be loaded at
var ImageLoadSizes = []string{"s", "m", "x", "y", "w", "a", "b", "c", "d"}

// Definition describes a known setting
type Definition struct {
	Key      string
	Default  string
	Validate func(string) error
	// Internal settings are not writable through the settings API
	Internal bool
}

var definitions = map[string]Definition{
	KeyUniqueOnly:           {Key: KeyUniqueOnly, Default: "false", Validate: validateBool},
	KeyNeedToLoadImages:     {Key: KeyNeedToLoadImages, Default: "false", Validate: validateBool},
	KeyImageLoadSize:        {Key: KeyImageLoadSize, Default: "c", Validate: validateImageLoadSize},
	KeyAlwaysHide:           {Key: KeyAlwaysHide, Default: "true", Validate: validateBool},
	KeyShowSensitiveContent: {Key: KeyShowSensitiveContent, Default: "false", Validate: validateBool},
	KeyAutoDownloadLimit:    {Key: KeyAutoDownloadLimit, Default: "5", Validate: validatePositiveInt},
	KeyAutoDownload:         {Key: KeyAutoDownload, Default: "", Internal: true},
}

// Lookup returns the definition of key
func Lookup(key string) (Definition, bool) {
	d, ok := definitions[key]
	return d, ok
}

// Keys returns all known keys in a stable order
func Keys() []string {
	keys := make([]string, 0, len(definitions))
	for k := range definitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validateBool(v string) error {
	if _, err := strconv.ParseBool(v); err != nil {
		return fmt.Errorf("expected a boolean, got %q", v)
	}
	return nil
}

func validatePositiveInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("expected a positive integer, got %q", v)
	}
	return nil
}

func validateImageLoadSize(v string) error {
	for _, s := range ImageLoadSizes {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("unknown image load size %q", v)
}

// SettingRecordModel is a GORM model for setting_record table
type SettingRecordModel struct {
	Key   string `gorm:"primaryKey;size:255"`
	Value string `gorm:"type:text"`
}

func (SettingRecordModel) TableName() string {
	return "setting_record"
}
