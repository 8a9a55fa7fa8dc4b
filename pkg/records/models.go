package records

import (
	"encoding/json"
	"time"
)

// Table names shared by every backend.
const (
	TableMetadata = "metadata"
	TableImages   = "images"
	TableTokens   = "tokens"
)

// MetadataRecord is one row of the metadata table: a pinned JSON document
// and the image it describes.
//
// IDs are kept as strings. JSON decoding also accepts numeric keys, so
// tables with integer identity columns read the same way.
type MetadataRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	ImageID   string    `gorm:"index;size:36" json:"image_id,omitempty" yaml:"image_id,omitempty"`
	PinataCID string    `gorm:"column:pinata_cid;index;not null;size:128" json:"pinata_cid" yaml:"pinata_cid"`
	PinataURL string    `gorm:"column:pinata_url;size:512" json:"pinata_url,omitempty" yaml:"pinata_url,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at" yaml:"created_at"`
}

func (MetadataRecord) TableName() string {
	return TableMetadata
}

func (m *MetadataRecord) UnmarshalJSON(b []byte) error {
	type row MetadataRecord
	aux := struct {
		ID      ID `json:"id"`
		ImageID ID `json:"image_id"`
		*row
	}{row: (*row)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m.ID, m.ImageID = string(aux.ID), string(aux.ImageID)
	return nil
}

// Image is one row of the images table.
type Image struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	FileName    string    `gorm:"index;size:255" json:"file_name" yaml:"file_name"`
	ImagePath   string    `gorm:"uniqueIndex;size:512" json:"image_path" yaml:"image_path"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at" yaml:"created_at"`
}

func (Image) TableName() string {
	return TableImages
}

func (img *Image) UnmarshalJSON(b []byte) error {
	type row Image
	aux := struct {
		ID ID `json:"id"`
		*row
	}{row: (*row)(img)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	img.ID = string(aux.ID)
	return nil
}

// Token is one row of the tokens table: a mint transaction recorded
// against a metadata row.
type Token struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	MetadataID      string    `gorm:"index;size:36" json:"metadata_id" yaml:"metadata_id"`
	TokenID         string    `gorm:"size:78" json:"token_id" yaml:"token_id"`
	TokenURI        string    `gorm:"column:token_uri;size:512" json:"token_uri" yaml:"token_uri"`
	TxHash          string    `gorm:"uniqueIndex;size:66" json:"tx_hash" yaml:"tx_hash"`
	ContractAddress string    `gorm:"size:42" json:"contract_address" yaml:"contract_address"`
	Chain           string    `gorm:"size:32" json:"chain" yaml:"chain"`
	MinterAddress   string    `gorm:"size:42" json:"minter_address" yaml:"minter_address"`
	MintedAt        time.Time `json:"minted_at" yaml:"minted_at"`
}

func (Token) TableName() string {
	return TableTokens
}

func (t *Token) UnmarshalJSON(b []byte) error {
	type row Token
	aux := struct {
		ID         ID `json:"id"`
		MetadataID ID `json:"metadata_id"`
		*row
	}{row: (*row)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.ID, t.MetadataID = string(aux.ID), string(aux.MetadataID)
	return nil
}

// AllModels returns every model for schema migration.
func AllModels() []any {
	return []any{
		&Image{},
		&MetadataRecord{},
		&Token{},
	}
}
