package model

import (
	"encoding/json"
	"io"
	"os"

	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// SaveJSON はモデル文書をJSONとしてファイルに保存する
//
// 使用例:
//
//	w, _ := detector.Weights()
//	err := model.SaveJSON(w, "model.json")
func SaveJSON(doc interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return mlerrors.Wrapf(err, "create %s", filename)
	}
	defer file.Close()

	if err := WriteJSON(doc, file); err != nil {
		return mlerrors.Wrapf(err, "write %s", filename)
	}
	return nil
}

// LoadJSON はファイルからモデル文書を読み込む。doc はポインタでなければならない。
func LoadJSON(doc interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return mlerrors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()

	if err := ReadJSON(doc, file); err != nil {
		return mlerrors.Wrapf(err, "read %s", filename)
	}
	return nil
}

// WriteJSON はモデル文書を整形済みJSONとして書き出す
func WriteJSON(doc interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return mlerrors.Wrap(err, "encode model")
	}
	return nil
}

// ReadJSON はモデル文書を読み込む。未知のフィールドはエラーになる。
func ReadJSON(doc interface{}, r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return mlerrors.Wrap(err, "decode model")
	}
	return nil
}
