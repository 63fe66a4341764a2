package importsql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/schema"
)

func fieldByKey(fields schema.Schema, key string) *schema.Field {
	for _, f := range fields {
		if f.Key == key {
			return f
		}
	}
	return nil
}

func TestFromDDLParsesColumnsTypesAndConstraints(t *testing.T) {
	const ddl = `
CREATE TABLE users (
	id INT PRIMARY KEY AUTO_INCREMENT,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) UNIQUE,
	age INT,
	is_active TINYINT(1),
	signed_up_at DATETIME,
	metadata JSON
);
`
	tables, err := FromDDL(ddl)
	if err != nil {
		t.Fatalf("from ddl: %v", err)
	}
	fields, ok := tables["users"]
	if !assert.True(t, ok) {
		return
	}

	if f := fieldByKey(fields, "name"); assert.NotNil(t, f) {
		assert.Equal(t, codec.TString, f.SoleType())
		assert.True(t, f.Required)
	}
	if f := fieldByKey(fields, "email"); assert.NotNil(t, f) {
		assert.Equal(t, codec.TEmail, f.SoleType())
		assert.True(t, f.Unique)
	}
	if f := fieldByKey(fields, "age"); assert.NotNil(t, f) {
		assert.Equal(t, codec.TNumber, f.SoleType())
	}
	if f := fieldByKey(fields, "is_active"); assert.NotNil(t, f) {
		assert.Equal(t, codec.TBoolean, f.SoleType())
	}
	if f := fieldByKey(fields, "signed_up_at"); assert.NotNil(t, f) {
		assert.Equal(t, codec.TDate, f.SoleType())
	}
	if f := fieldByKey(fields, "metadata"); assert.NotNil(t, f) {
		assert.Equal(t, codec.TJSON, f.SoleType())
	}
	assert.Nil(t, fieldByKey(fields, "id"))
}

func TestFromDDLResolvesForeignKeyToTableField(t *testing.T) {
	const ddl = `
CREATE TABLE posts (
	id INT PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	author_id INT,
	FOREIGN KEY (author_id) REFERENCES users(id)
);
`
	tables, err := FromDDL(ddl)
	if err != nil {
		t.Fatalf("from ddl: %v", err)
	}
	f := fieldByKey(tables["posts"], "author_id")
	if assert.NotNil(t, f) {
		assert.Equal(t, codec.TTable, f.SoleType())
		assert.Equal(t, "users", f.Table)
	}
}

func TestFromDDLRejectsUnsupportedType(t *testing.T) {
	const ddl = `
CREATE TABLE t (
	id INT PRIMARY KEY,
	geo POINT
);
`
	_, err := FromDDL(ddl)
	assert.Error(t, err)
}
