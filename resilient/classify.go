package resilient

import (
	"net/http"

	"github.com/stellarcargo/peercall/peer"
	"github.com/stellarcargo/peercall/xerrors"
)

// Classify 将一次远程调用的错误归类
//
// nil 为 Success；404 响应或 xerrors.ErrNotFound 为 NotFound；
// 其余（超时、连接失败、其他非 2xx、响应无法解码、熔断短路、调用方取消）均为 Unavailable。
func Classify(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	if code, ok := peer.StatusCode(err); ok {
		if code == http.StatusNotFound {
			return KindNotFound
		}
		return KindUnavailable
	}
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return KindNotFound
	}
	return KindUnavailable
}
