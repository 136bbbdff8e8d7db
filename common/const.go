// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

const (
	// App 应用程序名称
	App = "resp3"

	// Version 应用程序版本
	Version = "v0.0.1"

	// ReadWriteBlockSize 默认的 socket 读缓冲区大小
	//
	// 单次 Read 調用最多填充这么多字节到解码器 不代表单条 RESP3 Value 的大小上限
	ReadWriteBlockSize = 4096

	// DefaultMaxConnections 连接池默认的最大连接数
	DefaultMaxConnections = 50
)
