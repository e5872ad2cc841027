package interfaces

import "errors"

// ErrDuplicate 表示违反了唯一索引
var ErrDuplicate = errors.New("duplicate key")

// ErrNotFound 表示按成员更新的目标文档不存在
var ErrNotFound = errors.New("document not found")
