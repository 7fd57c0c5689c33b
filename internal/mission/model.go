// Package mission 是使用 peercall 的任务服务：创建任务时校验引用的用户、飞船、货物，
// 查询任务时补全名称。任务只保存在内存中。
package mission

import "time"

// Mission 任务
type Mission struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CommanderID  int64     `json:"commanderId"`
	SpacecraftID int64     `json:"spacecraftId"`
	CargoIDs     []int64   `json:"cargoIds"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateRequest 创建任务请求
type CreateRequest struct {
	Name         string  `json:"name" binding:"required"`
	CommanderID  int64   `json:"commanderId" binding:"required,gt=0"`
	SpacecraftID int64   `json:"spacecraftId" binding:"required,gt=0"`
	CargoIDs     []int64 `json:"cargoIds" binding:"dive,gt=0"`
}

// Details 补全名称后的任务
type Details struct {
	Mission
	CommanderUsername string   `json:"commanderUsername"`
	SpacecraftName    string   `json:"spacecraftName"`
	CargoNames        []string `json:"cargoNames"`
}
